package sesman

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
	"github.com/ILLGrenoble/webx-router/process"
)

// XorgService provisions an X server and window manager for an account,
// per spec §4.2.
type XorgService struct {
	cfg        config.XorgConfig
	serviceGID uint32
}

// NewXorgService builds an XorgService. serviceGID is the gid that owns
// per-user session directories and Xauthority files (the "service-gid" of
// spec §4.2 step 2/3).
func NewXorgService(cfg config.XorgConfig, serviceGID uint32) *XorgService {
	return &XorgService{cfg: cfg, serviceGID: serviceGID}
}

// AllocateDisplay scans {lock_path}/.X{N}-lock starting from
// display_offset and returns the first N with no lock file, per spec §4.2
// step 1 and the testable property in spec §8 ("N did not exist at
// assignment time and N >= display_offset").
func (s *XorgService) AllocateDisplay() (int, error) {
	for n := s.cfg.DisplayOffset; ; n++ {
		lockPath := filepath.Join(s.cfg.LockPath, fmt.Sprintf(".X%d-lock", n))
		if _, err := os.Stat(lockPath); os.IsNotExist(err) {
			return n, nil
		}
	}
}

// Execute spawns Xorg for account on the given resolution and PAM
// environment, implementing spec §4.2 steps 1-6. It returns the display
// number, the xauthority file path, and a Handle owning the Xorg process.
func (s *XorgService) Execute(acct account.Account, resolution ScreenResolution, env []account.EnvVar, sessionID string) (int, string, *process.Handle, error) {
	display, err := s.AllocateDisplay()
	if err != nil {
		return 0, "", nil, errors.X11Session(err, "allocate display")
	}

	userDir := filepath.Join(s.cfg.SessionsPath, strconv.FormatUint(uint64(acct.UID), 10))
	if err := s.createUserDir(userDir, acct.UID); err != nil {
		return 0, "", nil, err
	}

	xauthPath := filepath.Join(userDir, "Xauthority")
	if err := s.createXauthorityFile(xauthPath, acct.UID); err != nil {
		return 0, "", nil, err
	}

	cookie, err := createCookie()
	if err != nil {
		return 0, "", nil, err
	}
	displayName := fmt.Sprintf(":%d", display)
	if err := s.addXauthCookie(xauthPath, displayName, cookie, acct.UID, acct.GID, acct.SupplementaryGIDs); err != nil {
		return 0, "", nil, err
	}

	childEnv := []string{
		"DISPLAY=" + displayName,
		"XAUTHORITY=" + xauthPath,
		"HOME=" + acct.HomeDir,
		"XORG_RUN_AS_USER_OK=1",
		"XDG_RUNTIME_DIR=" + userDir,
		fmt.Sprintf("XRDP_START_WIDTH=%d", resolution.Width),
		fmt.Sprintf("XRDP_START_HEIGHT=%d", resolution.Height),
	}
	childEnv = appendPAMEnv(childEnv, env)

	args := []string{displayName, "-auth", xauthPath, "-config", s.cfg.ConfigPath, "-verbose"}
	outPath := filepath.Join(s.cfg.LogPath, sessionID+".xorg.out.log")
	errPath := filepath.Join(s.cfg.LogPath, sessionID+".xorg.err.log")

	cmd, err := spawnAsUser("Xorg", args, childEnv, acct, outPath, errPath)
	if err != nil {
		return 0, "", nil, errors.X11Session(err, "spawn Xorg")
	}

	handle := process.New(cmd)
	logger.Infow("xorg started", "display", display, "pid", handle.PID(), "uid", acct.UID)
	return display, xauthPath, handle, nil
}

// SpawnWindowManager mirrors Execute for the configured window-manager
// binary, per spec §4.2's "spawn_window_manager mirrors the above".
func (s *XorgService) SpawnWindowManager(acct account.Account, display int, xauthPath string, env []account.EnvVar, sessionID string) (*process.Handle, error) {
	displayName := fmt.Sprintf(":%d", display)
	childEnv := []string{
		"DISPLAY=" + displayName,
		"XAUTHORITY=" + xauthPath,
		"HOME=" + acct.HomeDir,
	}
	childEnv = appendPAMEnv(childEnv, env)

	outPath := filepath.Join(s.cfg.LogPath, sessionID+".wm.out.log")
	errPath := filepath.Join(s.cfg.LogPath, sessionID+".wm.err.log")

	cmd, err := spawnAsUser(s.cfg.WindowManager, nil, childEnv, acct, outPath, errPath)
	if err != nil {
		return nil, errors.X11Session(err, "spawn window manager")
	}
	handle := process.New(cmd)
	logger.Infow("window manager started", "display", display, "pid", handle.PID(), "uid", acct.UID)
	return handle, nil
}

func (s *XorgService) createUserDir(dir string, uid uint32) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Io(err, "create session dir "+dir)
	}
	if err := os.Chown(dir, int(uid), int(s.serviceGID)); err != nil {
		return errors.Io(err, "chown session dir "+dir)
	}
	if err := os.Chmod(dir, 0o750); err != nil {
		return errors.Io(err, "chmod session dir "+dir)
	}
	return nil
}

func (s *XorgService) createXauthorityFile(path string, uid uint32) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return errors.Io(err, "create xauthority file "+path)
	}
	defer f.Close()
	if err := f.Chown(int(uid), int(s.serviceGID)); err != nil {
		return errors.Io(err, "chown xauthority file "+path)
	}
	if err := f.Chmod(0o640); err != nil {
		return errors.Io(err, "chmod xauthority file "+path)
	}
	return nil
}

func (s *XorgService) addXauthCookie(xauthPath, displayName, cookie string, uid, gid uint32, supplementary []uint32) error {
	cmd := exec.Command("xauth", "-f", xauthPath, "add", displayName, ".", cookie)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    uid,
			Gid:    gid,
			Groups: supplementary,
		},
	}
	if out, err := cmd.CombinedOutput(); err != nil {
		return errors.X11Session(fmt.Errorf("%w: %s", err, out), "xauth add")
	}
	return nil
}

// spawnAsUser execs name with args under account's uid/gid/supplementary
// groups, dropped before exec per spec §4.2 step 5 ("setgroups, setgid,
// setuid - in that order"). Go's os/exec applies exactly that ordering
// atomically via SysProcAttr.Credential between fork and exec, which is
// why this stays on the standard library instead of shelling out to a
// setuid helper: the kernel-level guarantee is already exposed natively.
func spawnAsUser(name string, args, env []string, acct account.Account, stdoutPath, stderrPath string) (*exec.Cmd, error) {
	stdout, err := os.OpenFile(stdoutPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.Io(err, "open stdout log "+stdoutPath)
	}
	stderr, err := os.OpenFile(stderrPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		stdout.Close()
		return nil, errors.Io(err, "open stderr log "+stderrPath)
	}

	cmd := exec.Command(name, args...)
	cmd.Env = env
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    acct.UID,
			Gid:    acct.GID,
			Groups: acct.SupplementaryGIDs,
		},
	}

	if err := cmd.Start(); err != nil {
		stdout.Close()
		stderr.Close()
		return nil, err
	}
	return cmd, nil
}

func appendPAMEnv(base []string, env []account.EnvVar) []string {
	for _, e := range env {
		base = append(base, e.Name+"="+e.Value)
	}
	return base
}
