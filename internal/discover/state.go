// Package discover coordinates catalog queries with the trending counters.
//
// State is an immutable snapshot of the browsing session. Transitions
// return a new State and never perform I/O; the caller owns the current
// value and feeds it Outcomes produced by a Coordinator. Each dispatched
// request carries a sequence number and an Outcome is only applied when
// it answers the most recent request, so a slow response can never
// overwrite the results of a newer one.
package discover

import (
	"github.com/pders01/reel/internal/catalog"
)

const (
	MsgEmpty  = "No movies found."
	MsgFailed = "Failed to fetch movies. Please try again later."
)

type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusEmpty
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusEmpty:
		return "empty"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Query is what the user is currently looking at. An empty Term browses
// by popularity and GenreID 0 disables the genre filter.
type Query struct {
	Term    string
	Page    int
	GenreID int
}

func (q Query) normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	return q
}

// Request is one dispatched query.
type Request struct {
	Seq   uint64
	Query Query
}

func (r Request) catalogRequest() catalog.Request {
	q := r.Query.normalize()
	return catalog.Request{Term: q.Term, Page: q.Page, GenreID: q.GenreID}
}

// RecordSearch asks for the trending counter of Term to be bumped, with
// Movie as its new representative result.
type RecordSearch struct {
	Term  string
	Movie catalog.Movie
}

// Outcome is the terminal result of one Request.
type Outcome struct {
	Seq        uint64
	Query      Query
	Status     Status
	Movies     []catalog.Movie
	TotalPages int
	Err        error

	// Record is set only for a non-empty term with at least one result.
	Record *RecordSearch
}

// Message is the user-facing text for the outcome, empty on success.
func (o Outcome) Message() string {
	switch o.Status {
	case StatusEmpty:
		return MsgEmpty
	case StatusFailed:
		return MsgFailed
	default:
		return ""
	}
}

type State struct {
	Query      Query
	Seq        uint64
	Status     Status
	Movies     []catalog.Movie
	TotalPages int
	Message    string
	Err        error
}

func NewState() State {
	return State{Query: Query{Page: 1}}
}

// WithTerm changes the search term and returns to the first page.
func (s State) WithTerm(term string) State {
	s.Query.Term = term
	s.Query.Page = 1
	return s
}

// WithGenre changes the genre filter and returns to the first page.
func (s State) WithGenre(genreID int) State {
	s.Query.GenreID = genreID
	s.Query.Page = 1
	return s
}

func (s State) WithPage(page int) State {
	if page < 1 {
		page = 1
	}
	s.Query.Page = page
	return s
}

// NextPage advances one page, stopping at the last known page.
func (s State) NextPage() State {
	next := s.Query.Page + 1
	if s.TotalPages > 0 && next > s.TotalPages {
		return s
	}
	return s.WithPage(next)
}

func (s State) PrevPage() State {
	return s.WithPage(s.Query.Page - 1)
}

// Begin dispatches the current query: it takes the next sequence number,
// enters Loading and clears the previous message.
func (s State) Begin() (State, Request) {
	s.Query = s.Query.normalize()
	s.Seq++
	s.Status = StatusLoading
	s.Message = ""
	s.Err = nil
	return s, Request{Seq: s.Seq, Query: s.Query}
}

// Resolve applies o if it answers the latest dispatched request and
// reports whether it did. Superseded outcomes leave the state untouched.
func (s State) Resolve(o Outcome) (State, bool) {
	if o.Seq != s.Seq || s.Status != StatusLoading {
		return s, false
	}

	s.Status = o.Status
	s.Message = o.Message()
	s.Err = o.Err
	switch o.Status {
	case StatusSuccess:
		s.Movies = o.Movies
		s.TotalPages = o.TotalPages
	case StatusEmpty:
		s.Movies = nil
		s.TotalPages = o.TotalPages
	default:
		// A failed fetch keeps the last good page on screen.
	}
	return s, true
}

func (s State) Loading() bool {
	return s.Status == StatusLoading
}
