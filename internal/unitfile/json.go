package unitfile

import "encoding/json"

type unitJSON struct {
	Kind        string          `json:"kind"`
	Name        string          `json:"name"`
	Schema      string          `json:"schema"`
	Source      string          `json:"source"`
	Pos         []uint32        `json:"pos"`
	Imports     []importJSON    `json:"imports"`
	Implements  []implJSON      `json:"implements"`
	Constructor []paramJSON     `json:"constructor"`
	Params      []paramJSON     `json:"params"`
	Space       *spaceJSON      `json:"space"`
	Content     json.RawMessage `json:"content"`
}

type importJSON struct {
	Class   string   `json:"class"`
	Package string   `json:"package"`
	Pos     []uint32 `json:"pos"`
}

type implJSON struct {
	Name string   `json:"name"`
	Pos  []uint32 `json:"pos"`
}

type paramJSON struct {
	Name           string          `json:"name"`
	Aliases        []string        `json:"aliases"`
	Type           typeJSON        `json:"type"`
	Default        json.RawMessage `json:"default"`
	Constructor    json.RawMessage `json:"constructor"`
	Regex          string          `json:"regex"`
	HasDefault     bool            `json:"has_default"`
	HasConstructor bool            `json:"has_constructor"`
	Content        bool            `json:"content"`
	Space          *spaceJSON      `json:"space"`
	Pos            []uint32        `json:"pos"`
}

type typeJSON struct {
	Kind    string   `json:"kind"`
	Schema  string   `json:"schema"`
	Name    string   `json:"name"`
	From    string   `json:"from"`
	Exclude []string `json:"exclude"`
}

type spaceJSON struct {
	Interior string `json:"interior"`
	Exterior string `json:"exterior"`
}

// nodeJSON is the union of every node object's fields.
type nodeJSON struct {
	Kind        string            `json:"kind"`
	Pos         []uint32          `json:"pos"`
	Text        string            `json:"text"`
	Code        string            `json:"code"`
	Value       json.RawMessage   `json:"value"`
	Values      []json.RawMessage `json:"values"`
	Clauses     []clauseJSON      `json:"clauses"`
	Else        json.RawMessage   `json:"else"`
	Tag         string            `json:"tag"`
	Callee      string            `json:"callee"`
	Attrs       []attrJSON        `json:"attrs"`
	Bundles     []string          `json:"bundles"`
	Content     json.RawMessage   `json:"content"`
	Space       *spaceJSON        `json:"space"`
	Schema      string            `json:"schema"`
	Meaning     string            `json:"meaning"`
	Description string            `json:"description"`
	Hidden      bool              `json:"hidden"`
	Name        string            `json:"name"`
	Example     string            `json:"example"`
}

type clauseJSON struct {
	Cond json.RawMessage `json:"cond"`
	Then json.RawMessage `json:"then"`
}

type attrJSON struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
	Cond  json.RawMessage `json:"cond"`
	Pos   []uint32        `json:"pos"`
}
