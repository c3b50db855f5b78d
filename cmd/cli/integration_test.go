package cli_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"4d63.com/testcli"
	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/cmd/cli"
)

const (
	integrationRemoteBaseConstant = "https://example.test/"
	integrationListFileConstant   = "repositories.txt"
)

type gitFixture struct {
	remotesRoot string
	seedPath    string
	workspace   string
	listFile    string
}

func requireGit(t *testing.T) {
	t.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		t.Skip("git binary not available")
	}
}

func setupGit(t *testing.T) gitFixture {
	t.Helper()
	requireGit(t)

	t.Setenv("HOME", testcli.MkdirTemp(t))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	testcli.Exec(t, "git config --global user.email 'tests@example.com'")
	testcli.Exec(t, "git config --global user.name 'Tests'")
	testcli.Exec(t, "git config --global init.defaultBranch main")
	testcli.Exec(t, "git config --global pull.ff only")

	remotesRoot := testcli.MkdirTemp(t)
	testcli.Exec(t, fmt.Sprintf("git config --global url.%s/.insteadOf %s", remotesRoot, integrationRemoteBaseConstant))

	barePath := filepath.Join(remotesRoot, "team", "alpha.git")
	testcli.Exec(t, "git init --bare "+barePath)

	seedPath := filepath.Join(testcli.MkdirTemp(t), "seed")
	testcli.Exec(t, fmt.Sprintf("git clone %s %s", barePath, seedPath))
	testcli.Chdir(t, seedPath)
	testcli.WriteFile(t, "README.md", []byte("alpha\n"))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Initial commit'")
	testcli.Exec(t, "git push origin main")
	testcli.Exec(t, "git checkout -b feature")
	testcli.WriteFile(t, "feature.txt", []byte("feature\n"))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Feature commit'")
	testcli.Exec(t, "git push origin feature")
	testcli.Exec(t, "git checkout main")

	workingDirectory := testcli.MkdirTemp(t)
	listFile := filepath.Join(workingDirectory, integrationListFileConstant)
	require.NoError(t, os.WriteFile(listFile, []byte("# team repositories\nexample.test/team/alpha.git\n"), 0o600))

	return gitFixture{
		remotesRoot: remotesRoot,
		seedPath:    seedPath,
		workspace:   filepath.Join(workingDirectory, "workspace"),
		listFile:    listFile,
	}
}

func gitOutput(t *testing.T, command string) string {
	t.Helper()
	_, stdout, _ := testcli.Exec(t, command)
	return strings.TrimSpace(stdout)
}

func commitInSeed(t *testing.T, fixture gitFixture, branch string, fileName string) string {
	t.Helper()
	testcli.Chdir(t, fixture.seedPath)
	testcli.Exec(t, "git checkout "+branch)
	testcli.WriteFile(t, fileName, []byte(fileName+"\n"))
	testcli.Exec(t, "git add .")
	testcli.Exec(t, "git commit -m 'Update "+fileName+"'")
	testcli.Exec(t, "git push origin "+branch)
	return gitOutput(t, "git rev-parse HEAD")
}

func runReposync(t *testing.T, fixture gitFixture, arguments ...string) (int, string, string) {
	t.Helper()
	testcli.Chdir(t, filepath.Dir(fixture.listFile))
	commandLine := append([]string{"reposync"}, arguments...)
	commandLine = append(commandLine, "--file", fixture.listFile, "--out", fixture.workspace)
	return testcli.Main(t, commandLine, nil, cli.Run)
}

func TestCloneThenSyncReconcilesBranches(t *testing.T) {
	fixture := setupGit(t)
	checkoutPath := filepath.Join(fixture.workspace, "alpha")

	exitCode, stdout, stderr := runReposync(t, fixture, "clone", "-v")
	require.Equal(t, 0, exitCode, stderr)
	require.Empty(t, stderr)
	require.Equal(t, fmt.Sprintf("Cloning 1 repositories into %s\nCloned alpha\nSuccessfully cloned all 1 repositories\n", fixture.workspace), stdout)
	require.DirExists(t, filepath.Join(checkoutPath, ".git"))

	testcli.Exec(t, fmt.Sprintf("git -C %s branch --track feature origin/feature", checkoutPath))
	expectedMain := commitInSeed(t, fixture, "main", "main-update.txt")
	expectedFeature := commitInSeed(t, fixture, "feature", "feature-update.txt")

	exitCode, stdout, stderr = runReposync(t, fixture, "sync", "-v")
	require.Equal(t, 0, exitCode, stderr)
	require.Empty(t, stderr)
	require.Equal(t, fmt.Sprintf("Syncing 1 repositories in %s\nSynced alpha\nSuccessfully synced all 1 repositories\n", fixture.workspace), stdout)

	require.Equal(t, expectedMain, gitOutput(t, fmt.Sprintf("git -C %s rev-parse main", checkoutPath)))
	require.Equal(t, expectedFeature, gitOutput(t, fmt.Sprintf("git -C %s rev-parse feature", checkoutPath)))
	require.Equal(t, "main", gitOutput(t, fmt.Sprintf("git -C %s rev-parse --abbrev-ref HEAD", checkoutPath)))

	exitCode, stdout, _ = runReposync(t, fixture, "clone", "-v")
	require.Equal(t, 0, exitCode)
	require.Contains(t, stdout, "Skipping alpha: already exists\n")
}

func TestSyncSkipsMergeOnDirtyWorkingTree(t *testing.T) {
	fixture := setupGit(t)
	checkoutPath := filepath.Join(fixture.workspace, "alpha")

	exitCode, _, stderr := runReposync(t, fixture, "clone")
	require.Equal(t, 0, exitCode, stderr)

	notesPath := filepath.Join(checkoutPath, "notes.txt")
	require.NoError(t, os.WriteFile(notesPath, []byte("uncommitted\n"), 0o600))

	exitCode, stdout, stderr := runReposync(t, fixture, "sync", "-v")
	require.Equal(t, 0, exitCode, stderr)
	require.Contains(t, stdout, "Skipping merge on main in alpha: dirty working tree\n")
	require.Contains(t, stdout, "Successfully synced all 1 repositories\n")
	require.FileExists(t, notesPath)
}

func TestCloneReportsFailedRepositories(t *testing.T) {
	fixture := setupGit(t)
	require.NoError(t, os.WriteFile(fixture.listFile, []byte("example.test/team/alpha.git\nexample.test/team/missing\n"), 0o600))

	exitCode, stdout, stderr := runReposync(t, fixture, "clone")
	require.Equal(t, 1, exitCode)
	require.Equal(t, "Warning: failed to clone 1 out of 2 repositories\n", stdout)
	require.True(t, strings.HasPrefix(stderr, "Error cloning https://example.test/team/missing: "), stderr)
	require.DirExists(t, filepath.Join(fixture.workspace, "alpha"))
}
