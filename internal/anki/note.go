package anki

// Note adapts a fetched AnkiConnect note to the filler's note boundary,
// recording changed fields for the write-back call.
type Note struct {
	info    NoteInfo
	changed map[string]string
}

// NewNote wraps a fetched note.
func NewNote(info NoteInfo) *Note {
	return &Note{info: info, changed: map[string]string{}}
}

func (n *Note) ID() int64        { return n.info.NoteID }
func (n *Note) NoteType() string { return n.info.ModelName }

func (n *Note) Has(field string) bool {
	_, ok := n.info.Fields[field]
	return ok
}

func (n *Note) Field(field string) string {
	if v, ok := n.changed[field]; ok {
		return v
	}
	return n.info.Fields[field].Value
}

func (n *Note) SetField(field, value string) {
	if n.info.Fields[field].Value == value {
		delete(n.changed, field)
		return
	}
	n.changed[field] = value
}

// Changed returns the fields written since the note was wrapped, the
// payload for Client.UpdateNoteFields. Empty when nothing changed.
func (n *Note) Changed() map[string]string {
	return n.changed
}
