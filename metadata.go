package paludis

import "time"

// MetadataKeyTag classifies a metadata key's visibility/role, independent
// of its value kind.
type MetadataKeyTag uint8

const (
	TagSignificant MetadataKeyTag = iota
	TagNormal
	TagInternal
	TagDependencies
	TagAuthor
)

// MetadataKeyKind discriminates the sealed MetadataKey value-kind union.
type MetadataKeyKind uint8

const (
	KindValueString MetadataKeyKind = iota
	KindValueSlot
	KindValueLong
	KindValueBool
	KindValuePath
	KindValueID
	KindValueContents
	KindValueChoices
	KindValueMaskInfo
	KindTime
	KindCollectionKeywordSet
	KindCollectionStringSet
	KindCollectionStringSeq
	KindCollectionIDSeq
	KindCollectionPathSeq
	KindSpecTreeLicense
	KindSpecTreeSimpleURI
	KindSpecTreePlainText
	KindSpecTreeProvide
	KindSpecTreeDependency
	KindSpecTreeFetchableURI
	KindSection
)

// MetadataKey is a typed, tagged, lazily-materialized piece of a PackageID's
// metadata. ensure triggers parsing on first access and memoizes the
// result; it takes no lock, so concurrent first access to an unrealized key
// is not synchronized.
type MetadataKey struct {
	Human string
	Tag   MetadataKeyTag
	Kind  MetadataKeyKind

	strValue   string
	longValue  int64
	boolValue  bool
	timeValue  time.Time
	slotValue  SlotName
	idValue    PackageID
	stringSeq  []string
	idSeq      []PackageID
	keywordSet []KeywordName
	specTree   *DepSpecNode
	choices    Choices
	maskInfo   []Mask
	section    []*MetadataKey

	realized bool
	realize  func() (*MetadataKey, error)
}

// ensure lazily realizes the key's value exactly once.
func (k *MetadataKey) ensure() error {
	if k.realized || k.realize == nil {
		return nil
	}
	full, err := k.realize()
	if err != nil {
		return err
	}
	*k = *full
	k.realized = true
	return nil
}

// StringValue realizes and returns the key's string value.
func (k *MetadataKey) StringValue() (string, error) {
	if err := k.ensure(); err != nil {
		return "", err
	}
	return k.strValue, nil
}

// SpecTree realizes and returns the key's spec-tree value.
func (k *MetadataKey) SpecTree() (*DepSpecNode, error) {
	if err := k.ensure(); err != nil {
		return nil, err
	}
	return k.specTree, nil
}

// ChoicesValue realizes and returns the key's choice-set value.
func (k *MetadataKey) ChoicesValue() (Choices, error) {
	if err := k.ensure(); err != nil {
		return Choices{}, err
	}
	return k.choices, nil
}

// IDSeq realizes and returns the key's id-sequence value.
func (k *MetadataKey) IDSeq() ([]PackageID, error) {
	if err := k.ensure(); err != nil {
		return nil, err
	}
	return k.idSeq, nil
}

// StringSeq realizes and returns the key's string-sequence value.
func (k *MetadataKey) StringSeq() ([]string, error) {
	if err := k.ensure(); err != nil {
		return nil, err
	}
	return k.stringSeq, nil
}

// KeywordSetValue realizes and returns the key's keyword-set value.
func (k *MetadataKey) KeywordSetValue() ([]KeywordName, error) {
	if err := k.ensure(); err != nil {
		return nil, err
	}
	return k.keywordSet, nil
}

// NewStringKey builds an already-realized string-valued key.
func NewStringKey(human string, tag MetadataKeyTag, value string) *MetadataKey {
	return &MetadataKey{Human: human, Tag: tag, Kind: KindValueString, strValue: value, realized: true}
}

// NewSpecTreeKey builds an already-realized spec-tree-valued key.
func NewSpecTreeKey(human string, kind MetadataKeyKind, tree *DepSpecNode) *MetadataKey {
	return &MetadataKey{Human: human, Tag: TagDependencies, Kind: kind, specTree: tree, realized: true}
}

// NewLazySpecTreeKey builds a key whose spec tree is parsed on first access.
func NewLazySpecTreeKey(human string, kind MetadataKeyKind, realize func() (*DepSpecNode, error)) *MetadataKey {
	return &MetadataKey{
		Human: human, Tag: TagDependencies, Kind: kind,
		realize: func() (*MetadataKey, error) {
			tree, err := realize()
			if err != nil {
				return nil, err
			}
			return &MetadataKey{Human: human, Tag: TagDependencies, Kind: kind, specTree: tree}, nil
		},
	}
}

// NewKeywordSetKey builds an already-realized keyword-set key.
func NewKeywordSetKey(human string, kws []KeywordName) *MetadataKey {
	return &MetadataKey{Human: human, Tag: TagSignificant, Kind: KindCollectionKeywordSet, keywordSet: kws, realized: true}
}

// NewChoicesKey builds an already-realized choices key.
func NewChoicesKey(human string, c Choices) *MetadataKey {
	return &MetadataKey{Human: human, Tag: TagSignificant, Kind: KindValueChoices, choices: c, realized: true}
}

// NewIDSeqKey builds an already-realized id-sequence key (used for
// provide_key-style "this ID stands in for these others" metadata).
func NewIDSeqKey(human string, ids []PackageID) *MetadataKey {
	return &MetadataKey{Human: human, Tag: TagNormal, Kind: KindCollectionIDSeq, idSeq: ids, realized: true}
}

// NewTimeKey builds an already-realized time-valued key.
func NewTimeKey(human string, t time.Time) *MetadataKey {
	return &MetadataKey{Human: human, Tag: TagNormal, Kind: KindTime, timeValue: t, realized: true}
}
