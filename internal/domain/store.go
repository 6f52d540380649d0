package domain

// Store handles local persistence (BoltDB + memory).
// Content details are a cache; draft lists are user data.
type Store interface {
	// === Content details ===
	GetDetail(ref ContentRef) (*ContentDetail, bool)
	SaveDetail(detail *ContentDetail) error
	InvalidateDetail(ref ContentRef)
	InvalidateDetails()

	// === Draft lists ===
	GetList(name string) (*DraftList, bool)
	SaveList(list *DraftList) error
	DeleteList(name string) error
	ListNames() []string

	Close() error
}
