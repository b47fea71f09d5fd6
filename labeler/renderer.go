package labeler

// FrameRef points at the image of one camera for the frame under the cursor.
type FrameRef struct {
	Camera   string
	Frame    int
	URL      string
	Selected bool
}

// Renderer derives frame references from a snapshot. It holds no state.
type Renderer struct {
	linker FrameLinker
}

func NewRenderer(linker FrameLinker) Renderer {
	return Renderer{linker: linker}
}

// Grid returns one reference per camera of the session, in camera order.
func (r Renderer) Grid(s Snapshot) []FrameRef {
	if s.Session == "" || len(s.Cameras) == 0 || s.Length <= 0 {
		return nil
	}
	refs := make([]FrameRef, 0, len(s.Cameras))
	for _, cam := range s.Cameras {
		refs = append(refs, FrameRef{
			Camera:   cam,
			Frame:    s.Cursor,
			URL:      r.linker.FrameURL(s.Session, s.Cursor, cam),
			Selected: cam == s.Camera,
		})
	}
	return refs
}

// Single returns the reference of the selected camera.
func (r Renderer) Single(s Snapshot) (FrameRef, bool) {
	if s.Session == "" || s.Camera == "" || s.Length <= 0 {
		return FrameRef{}, false
	}
	return FrameRef{
		Camera:   s.Camera,
		Frame:    s.Cursor,
		URL:      r.linker.FrameURL(s.Session, s.Cursor, s.Camera),
		Selected: true,
	}, true
}
