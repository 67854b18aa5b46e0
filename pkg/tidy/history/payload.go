package history

import (
	"encoding/json"
	"fmt"
)

// Action tags a replay payload.
type Action string

// Payload actions.
const (
	ActionMove   Action = "move"
	ActionCopy   Action = "copy"
	ActionRename Action = "rename"
	ActionDelete Action = "delete"
	ActionBatch  Action = "batch"
)

// Payload is the data needed to reverse one recorded mutation. It is one of
// Move, Copy, Rename, Delete or Batch.
type Payload interface {
	Action() Action
	isPayload()
}

// Move records a file moved from From to To.
type Move struct {
	From string `json:"original_path"`
	To   string `json:"new_path"`
}

// Copy records a copy created at To.
type Copy struct {
	To string `json:"copied_path"`
}

// Rename records a rename within a directory.
type Rename struct {
	From string `json:"original_path"`
	To   string `json:"new_path"`
}

// Delete records a removal. Only trashed items can be restored.
type Delete struct {
	Path    string `json:"deleted_path"`
	ToTrash bool   `json:"to_trash"`
}

// Pair is one completed move inside a batch.
type Pair struct {
	From string `json:"original_path"`
	To   string `json:"new_path"`
}

// Batch records an ordered list of completed moves or renames.
type Batch struct {
	Pairs []Pair `json:"files"`
}

func (Move) Action() Action   { return ActionMove }
func (Copy) Action() Action   { return ActionCopy }
func (Rename) Action() Action { return ActionRename }
func (Delete) Action() Action { return ActionDelete }
func (Batch) Action() Action  { return ActionBatch }

func (Move) isPayload()   {}
func (Copy) isPayload()   {}
func (Rename) isPayload() {}
func (Delete) isPayload() {}
func (Batch) isPayload()  {}

// Encode serializes a payload as a JSON object carrying an "action" tag.
func Encode(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode payload: nil payload")
	}
	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	tag, _ := json.Marshal(p.Action())
	fields["action"] = tag
	return json.Marshal(fields)
}

// Decode parses a payload written by Encode. It also accepts a bare array
// of [original, new] path pairs, and a {"action":"rename","files":[...]}
// object, both of which decode to Batch.
func Decode(data []byte) (Payload, error) {
	var pairs [][]string
	if err := json.Unmarshal(data, &pairs); err == nil {
		b := Batch{Pairs: make([]Pair, 0, len(pairs))}
		for _, p := range pairs {
			if len(p) >= 2 && p[0] != "" && p[1] != "" {
				b.Pairs = append(b.Pairs, Pair{From: p[0], To: p[1]})
			}
		}
		return b, nil
	}

	var head struct {
		Action Action          `json:"action"`
		Files  json.RawMessage `json:"files"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var p Payload
	var err error
	switch {
	case head.Action == ActionBatch || (head.Action == ActionRename && head.Files != nil):
		var b Batch
		err = json.Unmarshal(data, &b)
		p = b
	case head.Action == ActionMove:
		var m Move
		err = json.Unmarshal(data, &m)
		p = m
	case head.Action == ActionCopy:
		var c Copy
		err = json.Unmarshal(data, &c)
		p = c
	case head.Action == ActionRename:
		var r Rename
		err = json.Unmarshal(data, &r)
		p = r
	case head.Action == ActionDelete:
		var d Delete
		err = json.Unmarshal(data, &d)
		p = d
	default:
		return nil, fmt.Errorf("decode payload: unknown action %q", head.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return p, nil
}
