package models

// Tip is stored at tips/{day}.
type Tip struct {
	Day   int    `json:"day" yaml:"day" firestore:"day"`
	Title string `json:"title" yaml:"title" firestore:"title"`
	Body  string `json:"body" yaml:"body" firestore:"body"`
}
