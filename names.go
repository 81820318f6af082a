package paludis

import (
	"regexp"
)

// NameErrorKind classifies why a name failed validation.
type NameErrorKind uint8

const (
	// BadCategoryName is raised when a category name fails the grammar.
	BadCategoryName NameErrorKind = iota
	// BadPackageName is raised when a package name fails the grammar.
	BadPackageName
	// BadSlotName is raised when a slot name fails the grammar.
	BadSlotName
	// BadRepositoryName is raised when a repository name fails the grammar.
	BadRepositoryName
	// BadKeywordName is raised when a keyword name fails the grammar.
	BadKeywordName
	// BadChoicePrefixName is raised when a choice prefix fails the grammar.
	BadChoicePrefixName
)

func (k NameErrorKind) String() string {
	switch k {
	case BadCategoryName:
		return "category name"
	case BadPackageName:
		return "package name"
	case BadSlotName:
		return "slot name"
	case BadRepositoryName:
		return "repository name"
	case BadKeywordName:
		return "keyword name"
	case BadChoicePrefixName:
		return "choice prefix"
	default:
		return "name"
	}
}

// NameError reports that a parsed name failed its grammar check.
type NameError struct {
	Kind  NameErrorKind
	Input string
}

func (e *NameError) Error() string {
	return "bad " + e.Kind.String() + ": '" + e.Input + "'"
}

func (*NameError) paludisError() {}

var (
	categoryNameRE = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+_.-]*$`)
	packageNameRE  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+_-]*$`)
	slotNameRE     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+_.-]*$`)
	repoNameRE     = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9+_-]*$`)
	keywordNameRE  = regexp.MustCompile(`^~?[A-Za-z0-9][A-Za-z0-9_-]*$`)
	prefixNameRE   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// CategoryName is a validated repository category (e.g. "dev-lang").
type CategoryName string

// NewCategoryName validates and wraps a category string.
func NewCategoryName(s string) (CategoryName, error) {
	if !categoryNameRE.MatchString(s) {
		return "", &NameError{Kind: BadCategoryName, Input: s}
	}
	return CategoryName(s), nil
}

// PackageNamePart is the package component of a QualifiedPackageName.
type PackageNamePart string

// NewPackageNamePart validates and wraps a package-name string.
func NewPackageNamePart(s string) (PackageNamePart, error) {
	if !packageNameRE.MatchString(s) {
		return "", &NameError{Kind: BadPackageName, Input: s}
	}
	return PackageNamePart(s), nil
}

// SlotName identifies a parallel-installation lane for a package.
type SlotName string

// NewSlotName validates and wraps a slot string.
func NewSlotName(s string) (SlotName, error) {
	if !slotNameRE.MatchString(s) {
		return "", &NameError{Kind: BadSlotName, Input: s}
	}
	return SlotName(s), nil
}

// RepositoryName identifies a repository within the package database.
type RepositoryName string

// NewRepositoryName validates and wraps a repository-name string.
func NewRepositoryName(s string) (RepositoryName, error) {
	if !repoNameRE.MatchString(s) {
		return "", &NameError{Kind: BadRepositoryName, Input: s}
	}
	return RepositoryName(s), nil
}

// KeywordName is a single keyword token (e.g. "amd64", "~x86").
type KeywordName string

// NewKeywordName validates and wraps a keyword string.
func NewKeywordName(s string) (KeywordName, error) {
	if !keywordNameRE.MatchString(s) {
		return "", &NameError{Kind: BadKeywordName, Input: s}
	}
	return KeywordName(s), nil
}

// ChoicePrefixName is the prefix portion of a prefixed choice flag.
type ChoicePrefixName string

// NewChoicePrefixName validates and wraps a choice-prefix string.
func NewChoicePrefixName(s string) (ChoicePrefixName, error) {
	if s == "" {
		return "", nil
	}
	if !prefixNameRE.MatchString(s) {
		return "", &NameError{Kind: BadChoicePrefixName, Input: s}
	}
	return ChoicePrefixName(s), nil
}

// QualifiedPackageName is the (category, package) identity pair.
type QualifiedPackageName struct {
	Category CategoryName
	Package  PackageNamePart
}

// NewQualifiedPackageName splits "category/package" and validates both halves.
func NewQualifiedPackageName(s string) (QualifiedPackageName, error) {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			cat, err := NewCategoryName(s[:i])
			if err != nil {
				return QualifiedPackageName{}, err
			}
			pkg, err := NewPackageNamePart(s[i+1:])
			if err != nil {
				return QualifiedPackageName{}, err
			}
			return QualifiedPackageName{Category: cat, Package: pkg}, nil
		}
	}
	return QualifiedPackageName{}, &NameError{Kind: BadPackageName, Input: s}
}

func (q QualifiedPackageName) String() string {
	return string(q.Category) + "/" + string(q.Package)
}

// Less orders qualified package names lexically by category then package.
func (q QualifiedPackageName) Less(o QualifiedPackageName) bool {
	if q.Category != o.Category {
		return q.Category < o.Category
	}
	return q.Package < o.Package
}
