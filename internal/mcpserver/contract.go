package mcpserver

// NoteFormat describes how notes are stored, for LLM clients that save them.
const NoteFormat = `# Note To Self Note Format

A notebook belongs to one passphrase. Every document is stored under the
notebook's public key; nothing is shared between passphrases.

## Notes

- A note is a **title** and a **body**. Both are plain UTF-8 text.
- Titles are case-sensitive: ` + "`" + `Groceries` + "`" + ` and ` + "`" + `groceries` + "`" + ` are two notes.
- Saving a title that already exists replaces its body. There is no history.
- Notes cannot be deleted or renamed.
- The title ` + "`" + `notes.json` + "`" + ` is reserved and rejected.

Stored document:

` + "```" + `json
{"noteBody": "Milk, Eggs"}
` + "```" + `

## Index

The index lists titles in the order they were first saved, without
duplicates. It is stored at key ` + "`" + `notes.json` + "`" + `:

` + "```" + `json
{"notes": ["Groceries", "Recipe"]}
` + "```" + `

If a save reports "note saved, index not updated", the note exists and can be
read by title, but ` + "`" + `list_notes` + "`" + ` will not show it until the same title is
saved again successfully.
`
