package schemas

// -- Agenda Schemas --

// ProposalSnapshot is the plain-value view of a proposal as it was rendered
// at the moment it was read. Drivers and the fixture JSON API exchange it.
type ProposalSnapshot struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Speaker    string `json:"speaker,omitempty"`
	Bookmarked bool   `json:"bookmarked"`
}

// BookmarkUpdate is the body accepted by the bookmark endpoint.
type BookmarkUpdate struct {
	Bookmarked bool `json:"bookmarked"`
}
