package gitrepo

import (
	"fmt"
	"strings"
)

const (
	httpProtocolPrefixConstant          = "http://"
	httpsProtocolPrefixConstant         = "https://"
	pathSeparatorConstant               = "/"
	vcsSuffixConstant                   = ".git"
	referenceErrorTemplateConstant      = "invalid repository reference %q: %s"
	referenceEmptyMessageConstant       = "reference is empty"
	referenceMissingPathMessageConstant = "reference has no path after the host"
	referenceEmptyNameMessageConstant   = "reference does not yield a repository name"
	referenceWhitespaceMessageConstant  = "reference contains whitespace"
)

// NormalizedRepository is a repository reference resolved to a canonical HTTPS URL and local directory name.
type NormalizedRepository struct {
	URL  string
	Name string
}

// RepositoryReferenceError reports a reference that cannot be normalized into a usable repository.
type RepositoryReferenceError struct {
	Reference string
	Reason    string
}

// Error describes the invalid reference.
func (referenceError RepositoryReferenceError) Error() string {
	return fmt.Sprintf(referenceErrorTemplateConstant, referenceError.Reference, referenceError.Reason)
}

// NormalizeRepository upgrades the reference to HTTPS and derives the local directory name.
//
// A leading http:// is replaced, never preserved. The name is the final path
// segment with every occurrence of ".git" removed, so "my.github.io" becomes
// "myhub.io".
func NormalizeRepository(raw string) NormalizedRepository {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, httpProtocolPrefixConstant)
	if !strings.HasPrefix(trimmed, httpsProtocolPrefixConstant) {
		trimmed = httpsProtocolPrefixConstant + trimmed
	}
	return NormalizedRepository{URL: trimmed, Name: deriveRepositoryName(trimmed)}
}

// ValidateRepositoryReference rejects references that cannot name a distinct working copy.
func ValidateRepositoryReference(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 {
		return RepositoryReferenceError{Reference: raw, Reason: referenceEmptyMessageConstant}
	}
	if strings.ContainsAny(trimmed, " \t") {
		return RepositoryReferenceError{Reference: trimmed, Reason: referenceWhitespaceMessageConstant}
	}

	normalized := NormalizeRepository(trimmed)
	hostAndPath := strings.TrimPrefix(normalized.URL, httpsProtocolPrefixConstant)
	separatorIndex := strings.Index(hostAndPath, pathSeparatorConstant)
	if separatorIndex <= 0 || separatorIndex == len(strings.TrimRight(hostAndPath, pathSeparatorConstant)) {
		return RepositoryReferenceError{Reference: trimmed, Reason: referenceMissingPathMessageConstant}
	}
	if len(normalized.Name) == 0 {
		return RepositoryReferenceError{Reference: trimmed, Reason: referenceEmptyNameMessageConstant}
	}
	return nil
}

func deriveRepositoryName(normalizedURL string) string {
	withoutTrailingSeparator := strings.TrimRight(normalizedURL, pathSeparatorConstant)
	lastSegment := withoutTrailingSeparator[strings.LastIndex(withoutTrailingSeparator, pathSeparatorConstant)+1:]
	return strings.ReplaceAll(lastSegment, vcsSuffixConstant, "")
}
