package tui

type View int

const (
	ViewDiscover View = iota
	ViewDetails
	ViewTrending
	ViewFavorites
	ViewGenres
	ViewRate
	ViewFeedback
)

func (v View) String() string {
	switch v {
	case ViewDiscover:
		return "discover"
	case ViewDetails:
		return "details"
	case ViewTrending:
		return "trending"
	case ViewFavorites:
		return "favorites"
	case ViewGenres:
		return "genres"
	case ViewRate:
		return "rate"
	case ViewFeedback:
		return "feedback"
	default:
		return "unknown"
	}
}
