package crossword

import (
	"unicode/utf8"

	"github.com/randomouscrap98/wordgrid/utils"
)

// The full puzzle document as delivered to clients. For the author view the
// answers are plaintext; for the play view every answer and keyword is
// ciphertext and only the lengths leak (they have to, for grid rendering).
type PuzzleView struct {
	Id              string          `json:"id"`
	Title           string          `json:"title"`
	AuthorName      string          `json:"authorName"`
	Visibility      string          `json:"visibility"`
	Subject         string          `json:"subject"`
	GradeLevel      string          `json:"gradeLevel"`
	PlayCount       int64           `json:"timesPlayed"`
	CompletionCount int64           `json:"completionCount"`
	Finalized       bool            `json:"isFinalized"`
	Entries         []MainEntryView `json:"mainKeyword"`
	Created         string          `json:"createdAt"`
	Updated         string          `json:"updatedAt"`
}

type MainEntryView struct {
	Keyword string     `json:"keyword"`
	Clues   []ClueView `json:"associatedHorizontalKeywords"`
}

type ClueView struct {
	Number             int    `json:"questionNumber"`
	Prompt             string `json:"questionContent"`
	Answer             string `json:"answer"`
	ColumnPosition     int    `json:"columnPosition"`
	NumberOfCharacters int    `json:"numberOfCharacters"`
}

// The listing shape for library/search/mine: NO answer fields at all,
// encrypted or otherwise.
type ListingView struct {
	Id              string `json:"id"`
	Title           string `json:"title"`
	AuthorName      string `json:"authorName"`
	Visibility      string `json:"visibility"`
	Subject         string `json:"subject"`
	GradeLevel      string `json:"gradeLevel"`
	PlayCount       int64  `json:"timesPlayed"`
	CompletionCount int64  `json:"completionCount"`
	QuestionCount   int    `json:"questionCount"`
	Created         string `json:"createdAt"`
	Updated         string `json:"updatedAt"`
}

func baseView(p *Puzzle) *PuzzleView {
	return &PuzzleView{
		Id:              p.Id,
		Title:           p.Title,
		AuthorName:      p.AuthorName,
		Visibility:      p.Visibility,
		Subject:         p.Subject,
		GradeLevel:      p.GradeLevel,
		PlayCount:       p.PlayCount,
		CompletionCount: p.CompletionCount,
		Finalized:       p.Finalized,
		Created:         p.Created,
		Updated:         p.Updated,
		Entries:         make([]MainEntryView, 0, len(p.Entries)),
	}
}

// The author/editor view: everything in the clear.
func AssembleAuthorView(p *Puzzle) *PuzzleView {
	view := baseView(p)
	for _, entry := range p.Entries {
		ev := MainEntryView{Keyword: entry.Keyword, Clues: make([]ClueView, 0, len(entry.Clues))}
		for _, clue := range entry.Clues {
			ev.Clues = append(ev.Clues, ClueView{
				Number:             clue.Number,
				Prompt:             clue.Prompt,
				Answer:             clue.Answer,
				ColumnPosition:     clue.ColumnPosition,
				NumberOfCharacters: clue.Length,
			})
		}
		view.Entries = append(view.Entries, ev)
	}
	return view
}

// The player view: identical structure, but every answer string and every
// vertical keyword is replaced with its ciphertext. If no codec is
// configured this fails outright; we never hand out plaintext by accident.
func (cctx *CrosswordContext) AssemblePlayView(p *Puzzle) (*PuzzleView, *utils.ApiError) {
	if cctx.codec == nil {
		return nil, utils.Unavailable("Answer encryption isn't configured")
	}
	view := baseView(p)
	for _, entry := range p.Entries {
		keyword, err := cctx.codec.EncryptAnswer(entry.Keyword)
		if err != nil {
			return nil, utils.Unavailable("Answer encryption failed")
		}
		ev := MainEntryView{Keyword: keyword, Clues: make([]ClueView, 0, len(entry.Clues))}
		for _, clue := range entry.Clues {
			answer, err := cctx.codec.EncryptAnswer(clue.Answer)
			if err != nil {
				return nil, utils.Unavailable("Answer encryption failed")
			}
			ev.Clues = append(ev.Clues, ClueView{
				Number:             clue.Number,
				Prompt:             clue.Prompt,
				Answer:             answer,
				ColumnPosition:     clue.ColumnPosition,
				NumberOfCharacters: clue.Length,
			})
		}
		view.Entries = append(view.Entries, ev)
	}
	return view, nil
}

func AssembleListing(p *Puzzle) *ListingView {
	return &ListingView{
		Id:              p.Id,
		Title:           p.Title,
		AuthorName:      p.AuthorName,
		Visibility:      p.Visibility,
		Subject:         p.Subject,
		GradeLevel:      p.GradeLevel,
		PlayCount:       p.PlayCount,
		CompletionCount: p.CompletionCount,
		QuestionCount:   p.QuestionCount(),
		Created:         p.Created,
		Updated:         p.Updated,
	}
}

func AssembleListings(puzzles []Puzzle) []*ListingView {
	result := make([]*ListingView, len(puzzles))
	for i := range puzzles {
		result[i] = AssembleListing(&puzzles[i])
	}
	return result
}

// Validate and canonicalize incoming entries: keywords and answers trimmed
// and upper-cased, clue lengths recomputed from the answer (input lengths
// are never trusted). Returns the joined list of bad fields on failure.
func NormalizeEntries(entries []MainEntry) ([]MainEntry, *utils.ApiError) {
	badfields := make([]string, 0)
	result := make([]MainEntry, 0, len(entries))
	for _, entry := range entries {
		entry.Keyword = utils.CanonicalAnswer(entry.Keyword)
		if entry.Keyword == "" {
			badfields = append(badfields, "keyword")
		}
		if len(entry.Clues) == 0 {
			badfields = append(badfields, "associatedHorizontalKeywords")
		}
		clues := make([]ClueEntry, 0, len(entry.Clues))
		for _, clue := range entry.Clues {
			clue.Answer = utils.CanonicalAnswer(clue.Answer)
			if clue.Answer == "" {
				badfields = append(badfields, "answer")
			}
			if clue.Prompt == "" {
				badfields = append(badfields, "questionContent")
			}
			if clue.Number <= 0 {
				badfields = append(badfields, "questionNumber")
			}
			if clue.ColumnPosition < 0 {
				badfields = append(badfields, "columnPosition")
			}
			clue.Length = utf8.RuneCountInString(clue.Answer)
			clues = append(clues, clue)
		}
		entry.Clues = clues
		result = append(result, entry)
	}
	if len(badfields) > 0 {
		return nil, utils.Invalid("Some clue fields are missing or malformed",
			utils.SliceDistinct(badfields)...)
	}
	return result, nil
}
