// Package listfile reads repository list files.
//
// A list holds one repository reference per line. Surrounding whitespace is
// trimmed, and blank lines and lines starting with "#" are ignored.
package listfile

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/reposync/internal/gitrepo"
	"github.com/temirov/reposync/internal/repos/shared"
)

const (
	commentPrefixConstant                    = "#"
	readErrorTemplateConstant                = "failed to read repository list %s: %w"
	fileFormatErrorTemplateConstant          = "invalid line %d in file %s: '%s'"
	duplicateRepositoryErrorTemplateConstant = "line %d in file %s: repository %q resolves to %q, already named on line %d"
	noRepositoriesMessageConstant            = "no repositories found in the repository list"
	fileSystemNotConfiguredMessageConstant   = "repository list loader filesystem not configured"
	scannerBufferInitialSizeConstant         = 64 * 1024
	scannerBufferMaximumSizeConstant         = 1024 * 1024
)

// ErrNoRepositories indicates a list file without a single repository reference.
var ErrNoRepositories = errors.New(noRepositoriesMessageConstant)

// ErrFileSystemNotConfigured indicates the loader was constructed without a filesystem.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// FileFormatError reports an invalid reference together with its 1-based line number.
type FileFormatError struct {
	File    string
	Line    int
	Content string
	Cause   error
}

// Error describes the invalid line.
func (formatError FileFormatError) Error() string {
	return fmt.Sprintf(fileFormatErrorTemplateConstant, formatError.Line, formatError.File, formatError.Content)
}

// Unwrap exposes the validation failure.
func (formatError FileFormatError) Unwrap() error {
	return formatError.Cause
}

// DuplicateRepositoryError reports two references that resolve to the same working copy name.
type DuplicateRepositoryError struct {
	File      string
	Line      int
	FirstLine int
	Reference string
	Name      string
}

// Error describes the duplicate.
func (duplicateError DuplicateRepositoryError) Error() string {
	return fmt.Sprintf(duplicateRepositoryErrorTemplateConstant, duplicateError.Line, duplicateError.File, duplicateError.Reference, duplicateError.Name, duplicateError.FirstLine)
}

// Loader reads and validates repository list files.
type Loader struct {
	fileSystem shared.FileSystem
}

// NewLoader constructs a Loader backed by the provided filesystem.
func NewLoader(fileSystem shared.FileSystem) (*Loader, error) {
	if fileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	return &Loader{fileSystem: fileSystem}, nil
}

// Load reads filePath and returns its repository references in file order.
func (loader *Loader) Load(filePath string) ([]string, error) {
	content, readError := loader.fileSystem.ReadFile(filePath)
	if readError != nil {
		return nil, fmt.Errorf(readErrorTemplateConstant, filePath, readError)
	}
	return Parse(filePath, content)
}

// Parse validates list content. fileName is used only in error messages.
func Parse(fileName string, content []byte) ([]string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, scannerBufferInitialSizeConstant), scannerBufferMaximumSizeConstant)

	references := make([]string, 0)
	firstLineByName := make(map[string]int)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || strings.HasPrefix(line, commentPrefixConstant) {
			continue
		}

		if validationError := gitrepo.ValidateRepositoryReference(line); validationError != nil {
			return nil, FileFormatError{File: fileName, Line: lineNumber, Content: line, Cause: validationError}
		}

		name := gitrepo.NormalizeRepository(line).Name
		if firstLine, seen := firstLineByName[name]; seen {
			return nil, DuplicateRepositoryError{File: fileName, Line: lineNumber, FirstLine: firstLine, Reference: line, Name: name}
		}
		firstLineByName[name] = lineNumber
		references = append(references, line)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, fmt.Errorf(readErrorTemplateConstant, fileName, scanError)
	}

	if len(references) == 0 {
		return nil, ErrNoRepositories
	}
	return references, nil
}
