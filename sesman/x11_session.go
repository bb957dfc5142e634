package sesman

import (
	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/process"
)

// X11Session is the (Xorg, window manager) process pair plus its xauth
// file and display number, per spec §3. WindowManager is nil only during
// the async startup window between the Xorg spawn and the WM spawn.
type X11Session struct {
	ID                 string
	Account            account.Account
	DisplayID          string
	XauthorityFilePath string
	Xorg               *process.Handle
	WindowManager      *process.Handle
	Resolution         ScreenResolution
}
