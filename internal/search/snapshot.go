package search

import (
	"context"
	"log"
	"strings"

	"github.com/productbazar/searchd/internal/metrics"
	"github.com/productbazar/searchd/internal/store"
)

// Field weights per entity kind, from the ranking contract.
const (
	weightPrimary    = 3.0 // name / title
	weightUsername   = 2.5
	weightSecondary  = 1.5 // job company, project technologies
	weightCompany    = 1.0
	weightTagline    = 1.0
	weightAttributes = 0.5 // category name, job/location type, user role
)

// Rebuilder reads the entity corpus from Postgres and swaps fresh
// snapshots into the entity indexes, the spelling index and the
// category resolver. The swap per component is atomic; queries running
// during a rebuild finish against the previous snapshot.
type Rebuilder struct {
	Store      *store.Store
	Indexes    map[Kind]*Index
	Spelling   *SpellingIndex
	Categories *CategoryResolver
	Logger     *log.Logger
}

// Rebuild loads every kind and installs the new snapshots. Any load
// error aborts the whole rebuild so the indexes never mix generations.
func (r *Rebuilder) Rebuild(ctx context.Context) error {
	categories, err := r.Store.ListCategories(ctx)
	if err != nil {
		return r.fail(err)
	}
	categoryName := make(map[string]string, len(categories))
	resolved := make([]Category, 0, len(categories))
	for _, c := range categories {
		categoryName[c.ID] = c.Name
		resolved = append(resolved, Category{ID: c.ID, Name: c.Name, Slug: c.Slug, Icon: c.Icon})
	}

	products, err := r.Store.ListProducts(ctx)
	if err != nil {
		return r.fail(err)
	}
	jobs, err := r.Store.ListJobs(ctx)
	if err != nil {
		return r.fail(err)
	}
	projects, err := r.Store.ListProjects(ctx)
	if err != nil {
		return r.fail(err)
	}
	users, err := r.Store.ListUsers(ctx)
	if err != nil {
		return r.fail(err)
	}

	docsByKind := map[Kind][]Doc{
		KindProducts: buildProductDocs(products, categoryName),
		KindJobs:     buildJobDocs(jobs),
		KindProjects: buildProjectDocs(projects, categoryName),
		KindUsers:    buildUserDocs(users),
	}

	spelling := make(map[Kind]map[string]int, len(docsByKind))
	for kind, docs := range docsByKind {
		spelling[kind] = dictionaryFrom(docs)
	}

	r.Categories.Swap(resolved)
	r.Spelling.Swap(spelling)
	for kind, docs := range docsByKind {
		if idx, ok := r.Indexes[kind]; ok {
			idx.Swap(docs)
			metrics.SnapshotDocs.WithLabelValues(string(kind)).Set(float64(len(docs)))
		}
	}
	metrics.SnapshotRebuildsTotal.WithLabelValues("ok").Inc()
	if r.Logger != nil {
		r.Logger.Printf("snapshot rebuilt: %d products, %d jobs, %d projects, %d users, %d categories",
			len(products), len(jobs), len(projects), len(users), len(categories))
	}
	return nil
}

func (r *Rebuilder) fail(err error) error {
	metrics.SnapshotRebuildsTotal.WithLabelValues("error").Inc()
	return err
}

func buildProductDocs(products []store.ProductRecord, categoryName map[string]string) []Doc {
	docs := make([]Doc, 0, len(products))
	for _, p := range products {
		name := Normalize(p.Name).Canonical
		docs = append(docs, Doc{
			ID: p.ID,
			Payload: &ProductHit{
				Slug:      p.Slug,
				Name:      p.Name,
				Tagline:   p.Tagline,
				Thumbnail: p.Thumbnail,
				Category:  p.CategoryID,
				Upvotes:   p.Upvotes,
			},
			Fields: []Field{
				{Weight: weightPrimary, Tokens: fieldTokens(p.Name)},
				{Weight: weightTagline, Tokens: fieldTokens(p.Tagline)},
				{Weight: weightAttributes, Tokens: fieldTokens(categoryName[p.CategoryID])},
			},
			TieBreaks:  []float64{float64(p.Upvotes), float64(p.CreatedAt.Unix())},
			Completion: name,
			Popularity: float64(p.Upvotes),
		})
	}
	return docs
}

func buildJobDocs(jobs []store.JobRecord) []Doc {
	docs := make([]Doc, 0, len(jobs))
	for _, j := range jobs {
		company := CompanyRef{Name: j.CompanyName, ProfilePicture: j.CompanyLogo}
		docs = append(docs, Doc{
			ID: j.ID,
			Payload: &JobHit{
				ID:             j.ID,
				Title:          j.Title,
				Company:        company,
				CompanyDetails: []CompanyRef{company},
				JobType:        j.JobType,
				LocationType:   j.LocationType,
			},
			Fields: []Field{
				{Weight: weightPrimary, Tokens: fieldTokens(j.Title)},
				{Weight: weightSecondary, Tokens: fieldTokens(j.CompanyName)},
				{Weight: weightAttributes, Tokens: fieldTokens(j.JobType + " " + j.LocationType)},
			},
			TieBreaks:  []float64{float64(j.PostedAt.Unix())},
			Completion: Normalize(j.Title).Canonical,
			Popularity: float64(j.PostedAt.Unix()),
		})
	}
	return docs
}

func buildProjectDocs(projects []store.ProjectRecord, categoryName map[string]string) []Doc {
	docs := make([]Doc, 0, len(projects))
	for _, p := range projects {
		hit := &ProjectHit{
			ID:           p.ID,
			Title:        p.Title,
			Thumbnail:    p.Thumbnail,
			Category:     p.CategoryID,
			Technologies: p.Technologies,
		}
		if hit.Technologies == nil {
			hit.Technologies = []string{}
		}
		if p.OwnerName != "" {
			hit.OwnerDetails = []OwnerRef{{Name: p.OwnerName}}
		}
		docs = append(docs, Doc{
			ID:      p.ID,
			Payload: hit,
			Fields: []Field{
				{Weight: weightPrimary, Tokens: fieldTokens(p.Title)},
				{Weight: weightSecondary, Tokens: fieldTokens(strings.Join(p.Technologies, " "))},
				{Weight: weightAttributes, Tokens: fieldTokens(categoryName[p.CategoryID])},
			},
			TieBreaks:  []float64{float64(p.CreatedAt.Unix())},
			Completion: Normalize(p.Title).Canonical,
			Popularity: float64(p.CreatedAt.Unix()),
		})
	}
	return docs
}

func buildUserDocs(users []store.UserRecord) []Doc {
	docs := make([]Doc, 0, len(users))
	for _, u := range users {
		hit := &UserHit{
			Username: u.Username,
			Name:     u.Name,
			Role:     u.Role,
		}
		if u.AvatarURL != "" {
			hit.ProfilePicture = &ProfilePicture{URL: u.AvatarURL}
		}
		if u.CompanyName != "" {
			hit.Company = &CompanyRef{Name: u.CompanyName}
		}
		docs = append(docs, Doc{
			ID:      u.ID,
			Payload: hit,
			Fields: []Field{
				{Weight: weightPrimary, Tokens: fieldTokens(u.Name)},
				{Weight: weightUsername, Tokens: fieldTokens(u.Username)},
				{Weight: weightCompany, Tokens: fieldTokens(u.CompanyName)},
				{Weight: weightAttributes, Tokens: fieldTokens(u.Role)},
			},
			TieBreaks:  []float64{float64(u.Followers)},
			Completion: Normalize(u.Name).Canonical,
			Popularity: float64(u.Followers),
		})
	}
	return docs
}

// fieldTokens canonicalizes a raw field with the same pipeline queries
// go through, so index and query tokens always line up.
func fieldTokens(raw string) []string {
	return Tokenize(Normalize(raw).Canonical)
}

// dictionaryFrom counts token frequencies across a kind's documents
// for the spelling index.
func dictionaryFrom(docs []Doc) map[string]int {
	dict := map[string]int{}
	for _, d := range docs {
		for _, f := range d.Fields {
			for _, t := range f.Tokens {
				dict[t]++
			}
		}
	}
	return dict
}
