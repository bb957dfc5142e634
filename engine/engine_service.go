package engine

import (
	"os"
	"os/exec"
	"path/filepath"
	"syscall"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/process"
	"github.com/ILLGrenoble/webx-router/sesman"
)

// Service spawns Engine processes for X11 sessions and validates their
// readiness, per spec §4.5.
type Service struct {
	cfg            config.EngineConfig
	ipc            config.IPCPaths
	serviceAccount account.Account
}

// NewService builds an engine Service. serviceAccount is the "webx"
// service account the Engine child process runs under, distinct from the
// end-user account that owns the X11 session (spec §4.5).
func NewService(cfg config.EngineConfig, ipc config.IPCPaths, serviceAccount account.Account) *Service {
	return &Service{cfg: cfg, ipc: ipc, serviceAccount: serviceAccount}
}

// SpawnEngine starts webx-engine attached to session, addressed by secret,
// per spec §4.5's environment and command-line contract.
func (s *Service) SpawnEngine(session *sesman.X11Session, secret string, cfg SessionConfig) (*Engine, error) {
	ipcPath := s.ipc.EngineConnectorRoot + "." + session.ID + ".ipc"
	logPath := filepath.Join(s.cfg.LogPath, "webx-engine."+session.ID+".log")

	logFile, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.EngineSession(err, "open engine log "+logPath)
	}
	defer logFile.Close()

	env := []string{
		"DISPLAY=" + session.DisplayID,
		"XAUTHORITY=" + session.XauthorityFilePath,
		"WEBX_ENGINE_LOG_LEVEL=debug",
		"WEBX_ENGINE_IPC_SESSION_CONNECTOR_PATH=" + s.ipc.SesmanConnector,
		"WEBX_ENGINE_IPC_MESSAGE_PROXY_PATH=" + s.ipc.MessageProxy,
		"WEBX_ENGINE_IPC_INSTRUCTION_PROXY_PATH=" + s.ipc.InstructionProxy,
		"WEBX_ENGINE_SESSION_ID=" + secret,
	}
	env = append(env, cfg.EngineEnv()...)

	cmd := exec.Command(s.cfg.Path, "-k", cfg.KeyboardLayout)
	cmd.Env = env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Credential: &syscall.Credential{
			Uid:    s.serviceAccount.UID,
			Gid:    s.serviceAccount.GID,
			Groups: s.serviceAccount.SupplementaryGIDs,
		},
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.EngineSession(err, "spawn engine")
	}

	return &Engine{Process: process.New(cmd), IPCPath: ipcPath}, nil
}

// ValidateEngine sends "ping" to engine up to tries times, expecting
// exactly "pong". An unexpected-but-received reply is a hard failure;
// only transport failures (timeout, connect refused) consume a retry, per
// spec §4.5.
func ValidateEngine(engine *Engine, tries int) error {
	var lastErr error
	for attempt := 0; attempt < tries; attempt++ {
		comm, err := engine.communicator()
		if err != nil {
			lastErr = err
			continue
		}
		reply, err := comm.Send("ping")
		if err != nil {
			lastErr = err
			continue
		}
		if reply != "pong" {
			return errors.EngineSession(errors.Newf("unexpected reply %q", reply), "validate engine")
		}
		return nil
	}
	return errors.EngineSession(lastErr, "validate engine: exhausted retries")
}
