package listfile_test

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/repos/filesystem"
	"github.com/temirov/reposync/internal/repos/listfile"
)

const testListFileNameConstant = "repos.txt"

func TestParseRepositoryList(testInstance *testing.T) {
	testCases := []struct {
		name               string
		content            string
		expectedReferences []string
		expectedLine       int
		expectedContent    string
		expectNoRepos      bool
		expectDuplicate    bool
	}{
		{
			name:               "skips_comments_and_blank_lines",
			content:            "# primary services\n\ngithub.com/owner/api\n   \n  https://github.com/owner/web.git  \n#github.com/owner/old\n",
			expectedReferences: []string{"github.com/owner/api", "https://github.com/owner/web.git"},
		},
		{
			name:               "windows_line_endings",
			content:            "github.com/owner/api\r\nhttp://github.com/owner/web\r\n",
			expectedReferences: []string{"github.com/owner/api", "http://github.com/owner/web"},
		},
		{
			name:            "invalid_reference_reports_line",
			content:         "# header\ngithub.com/owner/api\n\nnot-a-repository\n",
			expectedLine:    4,
			expectedContent: "not-a-repository",
		},
		{
			name:          "only_comments",
			content:       "# nothing yet\n\n",
			expectNoRepos: true,
		},
		{
			name:          "empty_file",
			content:       "",
			expectNoRepos: true,
		},
		{
			name:            "duplicate_names",
			content:         "github.com/owner/api\ngitlab.com/other/api.git\n",
			expectDuplicate: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			references, parseError := listfile.Parse(testListFileNameConstant, []byte(testCase.content))

			switch {
			case testCase.expectNoRepos:
				require.ErrorIs(testInstance, parseError, listfile.ErrNoRepositories)
			case testCase.expectDuplicate:
				var duplicateError listfile.DuplicateRepositoryError
				require.ErrorAs(testInstance, parseError, &duplicateError)
				require.Equal(testInstance, 2, duplicateError.Line)
				require.Equal(testInstance, 1, duplicateError.FirstLine)
				require.Equal(testInstance, "api", duplicateError.Name)
			case testCase.expectedLine > 0:
				var formatError listfile.FileFormatError
				require.ErrorAs(testInstance, parseError, &formatError)
				require.Equal(testInstance, testListFileNameConstant, formatError.File)
				require.Equal(testInstance, testCase.expectedLine, formatError.Line)
				require.Equal(testInstance, testCase.expectedContent, formatError.Content)
				require.Equal(testInstance, "invalid line 4 in file repos.txt: 'not-a-repository'", formatError.Error())

				var referenceError gitrepo.RepositoryReferenceError
				require.ErrorAs(testInstance, parseError, &referenceError)
			default:
				require.NoError(testInstance, parseError)
				require.Equal(testInstance, testCase.expectedReferences, references)
			}
		})
	}
}

func TestLoaderReadsFile(testInstance *testing.T) {
	listPath := filepath.Join(testInstance.TempDir(), testListFileNameConstant)
	require.NoError(testInstance, os.WriteFile(listPath, []byte("github.com/owner/api\n"), 0o600))

	loader, creationError := listfile.NewLoader(filesystem.OSFileSystem{})
	require.NoError(testInstance, creationError)

	references, loadError := loader.Load(listPath)
	require.NoError(testInstance, loadError)
	require.Equal(testInstance, []string{"github.com/owner/api"}, references)

	_, missingError := loader.Load(filepath.Join(testInstance.TempDir(), "missing.txt"))
	require.True(testInstance, errors.Is(missingError, fs.ErrNotExist))
}

func TestNewLoaderRequiresFileSystem(testInstance *testing.T) {
	loader, creationError := listfile.NewLoader(nil)
	require.ErrorIs(testInstance, creationError, listfile.ErrFileSystemNotConfigured)
	require.Nil(testInstance, loader)
}
