// Package schemas embeds the JSON Schemas for the portfolio's data files.
package schemas

import "embed"

// ProfileSchemaFile is the file name of the profile document schema.
const ProfileSchemaFile = "profile.schema.json"

//go:embed *.schema.json
var FS embed.FS

// Profile returns the raw profile document schema.
func Profile() []byte {
	data, err := FS.ReadFile(ProfileSchemaFile)
	if err != nil {
		panic("profile schema missing from embedded FS: " + err.Error())
	}
	return data
}
