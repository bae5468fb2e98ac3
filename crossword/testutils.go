package crossword

import (
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pelletier/go-toml/v2"

	"github.com/randomouscrap98/wordgrid/identity"
	"github.com/randomouscrap98/wordgrid/utils"
)

func reasonableConfig(name string) *Config {
	config := Config{}
	// Get a baseline config from toml (includes random secrets)
	rawconfig := GetDefaultConfig_Toml()
	err := toml.Unmarshal([]byte(rawconfig), &config)
	if err != nil {
		panic(err)
	}
	folder := utils.RandomTestFolder(name, true)
	config.DatabasePath = filepath.Join(folder, "crossword.db")
	return &config
}

func reasonableIdentityConfig(folder string) *identity.Config {
	config := identity.Config{}
	rawconfig := identity.GetDefaultConfig_Toml()
	err := toml.Unmarshal([]byte(rawconfig), &config)
	if err != nil {
		panic(err)
	}
	config.DatabasePath = filepath.Join(folder, "identity.db")
	return &config
}

// A crossword context plus the identity context backing it, both on
// throwaway databases, wired the same way main wires them.
func newTestContext(name string) (*CrosswordContext, *identity.IdentityContext) {
	config := reasonableConfig(name)
	ictx, err := identity.NewIdentityContext(reasonableIdentityConfig(filepath.Dir(config.DatabasePath)))
	if err != nil {
		panic(err)
	}
	cctx, err := NewCrosswordContext(config, ictx)
	if err != nil {
		panic(err)
	}
	ictx.OnRename = cctx.UpdateAuthorName
	return cctx, ictx
}

// Register a user and fill out their profile so authoring/playing is open.
func newTestUser(ictx *identity.IdentityContext, username string) *identity.UserAccount {
	user, aerr := ictx.RegisterUser(username, username+"@example.com", "somepassword")
	if aerr != nil {
		panic(aerr)
	}
	user, aerr = ictx.UpdateProfile(user, &identity.ProfileUpdate{
		FullName:   "Test " + username,
		BirthDate:  "1990-04-01",
		Occupation: identity.OccupationTeacher,
		Phone:      "0123456789",
	})
	if aerr != nil {
		panic(aerr)
	}
	return user
}

// A small finalized puzzle ready for play.
func insertTestPuzzle(cctx *CrosswordContext, author *identity.UserAccount, title string, visibility string) *Puzzle {
	puzzle := Puzzle{
		Id:         uuid.NewString(),
		Title:      title,
		AuthorId:   author.Uid,
		AuthorName: author.DisplayName(),
		Visibility: visibility,
		Subject:    "Geography",
		GradeLevel: "6",
		Finalized:  true,
		Entries: []MainEntry{{
			Keyword: "HANOI",
			Clues: []ClueEntry{{
				Number:         1,
				Prompt:         "It flows to the sea",
				Answer:         "RIVER",
				ColumnPosition: 2,
				Length:         5,
			}},
		}},
	}
	err := cctx.store.Insert(&puzzle)
	if err != nil {
		panic(err)
	}
	return &puzzle
}
