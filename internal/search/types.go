package search

import "fmt"

// Kind identifies a searchable entity class.
type Kind string

const (
	KindProducts Kind = "products"
	KindJobs     Kind = "jobs"
	KindProjects Kind = "projects"
	KindUsers    Kind = "users"

	// KindAll is a query-time filter only and is never stored.
	KindAll Kind = "all"
)

// Kinds lists every concrete entity kind in envelope order.
var Kinds = []Kind{KindProducts, KindJobs, KindProjects, KindUsers}

// ParseKind validates a type filter coming off the wire.
// An empty value means "all".
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case "", KindAll:
		return KindAll, nil
	case KindProducts, KindJobs, KindProjects, KindUsers:
		return Kind(raw), nil
	default:
		return "", fmt.Errorf("unknown type %q", raw)
	}
}

// Expand resolves a type filter to the concrete kinds it covers.
func (k Kind) Expand() []Kind {
	if k == KindAll {
		return Kinds
	}
	return []Kind{k}
}

// Hit is a single retrieval result. Payload carries the kind-specific
// wire shape (*ProductHit, *JobHit, *ProjectHit or *UserHit).
type Hit struct {
	Kind    Kind
	ID      string
	Score   float64
	Payload any
}

// CompanyRef is the embedded company shape shared by job and user hits.
type CompanyRef struct {
	Name           string `json:"name"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// ProductHit is the wire shape for a product result.
type ProductHit struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	Tagline      string `json:"tagline"`
	Thumbnail    string `json:"thumbnail,omitempty"`
	Category     string `json:"category"`
	CategoryName string `json:"categoryName,omitempty"`
	Upvotes      int    `json:"upvotes"`
}

// JobHit is the wire shape for a job result. CompanyDetails mirrors
// Company for clients still reading the aggregation-style array.
type JobHit struct {
	ID             string       `json:"_id"`
	Title          string       `json:"title"`
	Company        CompanyRef   `json:"company"`
	CompanyDetails []CompanyRef `json:"companyDetails,omitempty"`
	JobType        string       `json:"jobType"`
	LocationType   string       `json:"locationType"`
}

// OwnerRef is the embedded owner shape on project hits.
type OwnerRef struct {
	Name string `json:"name"`
}

// ProjectHit is the wire shape for a project result.
type ProjectHit struct {
	ID           string     `json:"_id"`
	Title        string     `json:"title"`
	Thumbnail    string     `json:"thumbnail,omitempty"`
	Category     string     `json:"category"`
	CategoryName string     `json:"categoryName,omitempty"`
	OwnerDetails []OwnerRef `json:"ownerDetails,omitempty"`
	Technologies []string   `json:"technologies"`
}

// ProfilePicture is the nested avatar shape on user hits.
type ProfilePicture struct {
	URL string `json:"url"`
}

// UserHit is the wire shape for a user result.
type UserHit struct {
	Username       string          `json:"username"`
	Name           string          `json:"name"`
	Role           string          `json:"role"`
	ProfilePicture *ProfilePicture `json:"profilePicture,omitempty"`
	Company        *CompanyRef     `json:"company,omitempty"`
}

// SuggestionSource tells where a suggestion came from.
type SuggestionSource string

const (
	SourceCompletion SuggestionSource = "completion"
	SourceHistory    SuggestionSource = "history"
	SourceSpelling   SuggestionSource = "spelling"
)

// Suggestion is a candidate next query. Kind serializes as "type" to
// match the search filter parameter clients already send.
type Suggestion struct {
	Query                string           `json:"query"`
	Kind                 Kind             `json:"type"`
	Source               SuggestionSource `json:"source"`
	IsSpellingCorrection bool             `json:"isSpellingCorrection,omitempty"`
}
