package app

// ErrorResponse is the body of every non-envelope failure.
// It mirrors the envelope's message/status_code pair.
type ErrorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// BoardsResponse lists the boards served under /boards/{board}.
type BoardsResponse struct {
	Boards []BoardView `json:"boards"`
}

// BoardView is the public view of a registered board.
type BoardView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Random      bool   `json:"random"`
	Path        string `json:"path"`
}
