package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/bedanno/internal/fileio"
)

const reportHeader = "Chromosome\tStart\tEnd\tFeature\tSYMBOL\tHGVSc\tEXON\tINTRON\n"

// testEnv isolates HOME so no user config leaks into a run.
func testEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func readOutput(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestRun_WrongArgCount(t *testing.T) {
	testEnv(t)
	for _, args := range [][]string{nil, {"a.bed"}, {"a", "b", "c", "d"}} {
		code, _, stderr := runCLI(t, args...)
		assert.Equal(t, ExitError, code, args)
		assert.Contains(t, stderr, usageLine, args)
	}
}

func TestRun_EndToEnd(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t100\t200\tMYGENE\n")
	report := writeFile(t, dir, "report.txt", reportHeader+"chr1\t100\t200\tNM_001\tMYGENE\tc.50delG\t\t\n")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)

	assert.Equal(t, "chr1\t100\t200\tMYGENE;NM_001:MYGENE::c.50\n",
		readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
	assert.Contains(t, stderr, "annotation complete")
}

func TestRun_ExonPresent(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t100\t200\tMYGENE\n")
	report := writeFile(t, dir, "report.txt", reportHeader+"chr1\t100\t200\tNM_001\tMYGENE\tc.50delG\t3\t\n")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t100\t200\tMYGENE;NM_001:MYGENE:e3:c.50\n",
		readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_WithoutExonIntron(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t100\t200\tMYGENE\n")
	report := writeFile(t, dir, "report.txt", reportHeader+"chr1\t100\t200\tNM_001\tMYGENE\tc.50delG\t3\t\n")
	out := filepath.Join(dir, "custom.bed")

	code, _, stderr := runCLI(t, "--exon-intron=false", "-o", out, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t100\t200\tMYGENE;NM_001:MYGENE:c.50\n", readOutput(t, out))
}

func TestRun_AllowList(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader+
		"chr1\t1\t2\tT1\tG\tc.1A>G\t\t\n"+
		"chr1\t1\t2\tT2\tG\tc.2A>G\t\t\n")
	allow := writeFile(t, dir, "transcripts.tsv", "G\tT1\n\n")

	code, _, stderr := runCLI(t, bedPath, report, allow)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t1\t2\tT1:G::c.1A>G\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_MissingAllowListIsLenient(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader+
		"chr1\t1\t2\tT1\tG\tc.1\t\t\n"+
		"chr1\t1\t2\tT2\tG\tc.2\t\t\n")

	code, _, stderr := runCLI(t, bedPath, report, filepath.Join(dir, "missing.tsv"))
	require.Equal(t, ExitSuccess, code)
	assert.Contains(t, stderr, "could not read transcript file")
	assert.Equal(t, "chr1\t1\t2\tT1:G::c.1;T2:G::c.2\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))

	code, _, _ = runCLI(t, "--strict", bedPath, report, filepath.Join(dir, "missing.tsv"))
	assert.Equal(t, ExitError, code)
}

func TestRun_MissingInputsProduceNoOutput(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader)
	outPath := filepath.Join(dir, "regions_Annotated.bed")

	code, _, stderr := runCLI(t, bedPath, filepath.Join(dir, "missing.txt"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "open annotation report")
	assert.NoFileExists(t, outPath)

	code, _, stderr = runCLI(t, filepath.Join(dir, "missing.bed"), report)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "open bed file")
	assert.NoFileExists(t, filepath.Join(dir, "missing_Annotated.bed"))
}

func TestRun_MalformedReportRows(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader+
		"chr1\t1\n"+
		"chr1\t1\t2\tT1\tG\tc.1\t\t\n")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stderr, "skipping malformed annotation row")
	assert.Equal(t, "chr1\t1\t2\tT1:G::c.1\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))

	code, _, stderr = runCLI(t, "--strict", bedPath, report)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "annotation parse error")
}

func TestRun_Idempotent(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "track name=x\nchr1\t1\t2\tA\nchr2\t3\t4\nchr1\t1\t2\tB\t0\t+\n")
	report := writeFile(t, dir, "report.txt", reportHeader+
		"chr1\t1\t2\tT1\tG\tc.1delA\t2\t\n"+
		"chr2\t3\t4\tT2\tH\tc.9\t\t1\n")
	outPath := filepath.Join(dir, "regions_Annotated.bed")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	first := readOutput(t, outPath)

	code, _, stderr = runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, first, readOutput(t, outPath))
	assert.Equal(t, "chr1\t1\t2\tA;T1:G:e2:c.1\nchr2\t3\t4\tT2:H:i1:c.9\nchr1\t1\t2\tB;T1:G:e2:c.1\n", first)
}

func TestRun_ConfigFile(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt",
		"Chromosome\tStart\tEnd\tFeature\tGene\tHGVSc\tEXON\n"+
			"chr1\t1\t2\tT1\tG\tc.1\t4\n")
	cfg := writeFile(t, dir, "bedanno.yaml", "exon_intron: false\nreport:\n  columns:\n    symbol: Gene\n")

	code, _, stderr := runCLI(t, "--config", cfg, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t1\t2\tT1:G:c.1\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_HeaderlessReport(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", "chr1\t1\t2\tT1\tG\tc.1\t\t5\n")
	cfg := writeFile(t, dir, "bedanno.yaml", "report:\n  headerless: true\n")

	code, _, stderr := runCLI(t, "--config", cfg, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t1\t2\tT1:G:i5:c.1\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_ColumnNameFromEnv(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("BEDANNO_REPORT_COLUMNS_SYMBOL", "Gene")
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt",
		"Chromosome\tStart\tEnd\tFeature\tGene\tHGVSc\n"+
			"chr1\t1\t2\tT1\tG\tc.1\n")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t1\t2\tT1:G::c.1\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_ColumnIndexFromEnv(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("BEDANNO_REPORT_HEADERLESS", "true")
	t.Setenv("BEDANNO_REPORT_INDICES_FEATURE", "4")
	t.Setenv("BEDANNO_REPORT_INDICES_SYMBOL", "3")
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", "chr1\t1\t2\tG\tT1\tc.1\t\t\n")

	code, _, stderr := runCLI(t, bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t1\t2\tT1:G::c.1\n", readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_BadColumnIndex(t *testing.T) {
	dir := testEnv(t)
	t.Setenv("BEDANNO_REPORT_HEADERLESS", "true")
	t.Setenv("BEDANNO_REPORT_INDICES_SYMBOL", "fourth")
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", "chr1\t1\t2\tT1\tG\tc.1\t\t\n")

	code, _, stderr := runCLI(t, bedPath, report)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "report.indices.symbol")
}

func TestRun_MissingReportColumnIsFatal(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt",
		"Chromosome\tStart\tEnd\tFeature\tGene\tHGVSc\n"+
			"chr1\t1\t2\tT1\tG\tc.1\n")

	code, _, stderr := runCLI(t, bedPath, report)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, `required column "SYMBOL" not found`)
	assert.NoFileExists(t, filepath.Join(dir, "regions_Annotated.bed"))

	code, _, _ = runCLI(t, "index", report, filepath.Join(dir, "report.duckdb"))
	assert.Equal(t, ExitError, code)
	assert.NoFileExists(t, filepath.Join(dir, "report.duckdb"))
}

func TestRun_BGZFOutput(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\tA\n")
	report := writeFile(t, dir, "report.txt", reportHeader+"chr1\t1\t2\tT1\tG\tc.1\t\t\n")

	code, _, stderr := runCLI(t, "--compression", "bgzf", bedPath, report)
	require.Equal(t, ExitSuccess, code, stderr)

	r, err := fileio.Open(filepath.Join(dir, "regions_Annotated.bed.gz"))
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t1\t2\tA;T1:G::c.1\n", string(data))
}

func TestRun_UnknownCompression(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader)

	code, _, stderr := runCLI(t, "--compression", "zip", bedPath, report)
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "unknown compression")
}

func TestRun_RefusesToOverwriteInput(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t1\t2\n")
	report := writeFile(t, dir, "report.txt", reportHeader)

	code, _, _ := runCLI(t, "-o", bedPath, bedPath, report)
	assert.Equal(t, ExitError, code)
	assert.Equal(t, "chr1\t1\t2\n", readOutput(t, bedPath))
}

func TestRun_IndexThenAnnotate(t *testing.T) {
	dir := testEnv(t)
	bedPath := writeFile(t, dir, "regions.bed", "chr1\t100\t200\tMYGENE\n")
	report := writeFile(t, dir, "report.txt", reportHeader+
		"chr1\t100\t200\tNM_001\tMYGENE\tc.50delG\t3\t\n"+
		"chr1\t100\t200\tNM_002\tMYGENE\tc.51A>T\t\t2\n")
	db := filepath.Join(dir, "report.duckdb")

	code, _, stderr := runCLI(t, "index", report, db)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.FileExists(t, db)

	code, _, stderr = runCLI(t, bedPath, db)
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "chr1\t100\t200\tMYGENE;NM_001:MYGENE:e3:c.50;NM_002:MYGENE:i2:c.51A>T\n",
		readOutput(t, filepath.Join(dir, "regions_Annotated.bed")))
}

func TestRun_IndexRejectsBadName(t *testing.T) {
	dir := testEnv(t)
	report := writeFile(t, dir, "report.txt", reportHeader)

	code, _, stderr := runCLI(t, "index", report, filepath.Join(dir, "report.idx"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, ".duckdb")
}

func TestRun_ConfigSetGet(t *testing.T) {
	home := testEnv(t)

	code, stdout, stderr := runCLI(t, "config", "set", "strict", "yes")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Contains(t, stdout, filepath.Join(home, ".bedanno.yaml"))

	data, err := os.ReadFile(filepath.Join(home, ".bedanno.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "strict: true\n", string(data))

	code, stdout, stderr = runCLI(t, "config", "get", "strict")
	require.Equal(t, ExitSuccess, code, stderr)
	assert.Equal(t, "true", strings.TrimSpace(stdout))

	code, _, stderr = runCLI(t, "config", "get", "no.such.key")
	assert.Equal(t, ExitError, code)
	assert.Contains(t, stderr, "not set")
}

func TestRun_Version(t *testing.T) {
	testEnv(t)
	code, stdout, _ := runCLI(t, "--version")
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout, version)
}

func TestIsIndexFile(t *testing.T) {
	assert.True(t, isIndexFile("report.duckdb"))
	assert.True(t, isIndexFile("REPORT.DB"))
	assert.False(t, isIndexFile("report.txt"))
}
