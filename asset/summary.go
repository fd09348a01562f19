package asset

// Summary is a kind-independent overview of a document.
type Summary struct {
	Kind     string         `json:"kind"`
	Format   string         `json:"format"`
	Name     string         `json:"name,omitempty"`
	Counts   map[string]int `json:"counts"`
	Duration float32        `json:"duration,omitempty"` // Seconds, motions only
}

// Summarize counts the contents of doc.
func Summarize(doc Document) Summary {
	desc := doc.Descriptor()
	s := Summary{
		Kind:   desc.Kind.String(),
		Format: desc.Format.String(),
		Counts: make(map[string]int),
	}
	switch doc := doc.(type) {
	case *Model:
		st := doc.Stats()
		s.Name = doc.Name
		s.Counts["meshes"] = st.Meshes
		s.Counts["batches"] = st.Batches
		s.Counts["vertices"] = st.Vertices
		s.Counts["triangles"] = st.Triangles
		s.Counts["bones"] = st.Bones
		s.Counts["materials"] = st.Materials
	case *TexturePack:
		s.Counts["textures"] = len(doc.Textures)
		s.Counts["bytes"] = doc.Bytes()
	case *Field:
		s.Name = doc.Name
		s.Counts["resources"] = len(doc.Resources)
		nodes := 0
		for kind, n := range doc.Count() {
			nodes += n
			if n > 0 {
				s.Counts[kind.String()] = n
			}
		}
		s.Counts["nodes"] = nodes
	case *Motion:
		s.Name = doc.Name
		s.Duration = doc.Duration()
		keys := 0
		for _, t := range doc.Tracks {
			keys += len(t.Keys)
		}
		s.Counts["tracks"] = len(doc.Tracks)
		s.Counts["keys"] = keys
		s.Counts["bones"] = len(doc.Bones())
	}
	return s
}
