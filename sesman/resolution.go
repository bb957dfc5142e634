package sesman

// ScreenResolution is the pixel geometry requested for an X11 session.
type ScreenResolution struct {
	Width  int
	Height int
}
