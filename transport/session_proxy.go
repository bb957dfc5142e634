package transport

import (
	"context"
	"encoding/base64"
	"strconv"
	"strings"
	"sync"
	"time"

	zmq "github.com/pebbe/zmq4"

	"github.com/ILLGrenoble/webx-router/account"
	"github.com/ILLGrenoble/webx-router/bus"
	"github.com/ILLGrenoble/webx-router/config"
	"github.com/ILLGrenoble/webx-router/engine"
	"github.com/ILLGrenoble/webx-router/errors"
	"github.com/ILLGrenoble/webx-router/logger"
	"github.com/ILLGrenoble/webx-router/sesman"
	"github.com/ILLGrenoble/webx-router/wireproto"
)

// sessionPollTimeout is the Session Proxy's own poll timeout, per spec §5.
// It is longer than the other proxies' proxyPollTimeout; when a poll times
// out the loop only re-checks ctx before polling again.
const sessionPollTimeout = 5 * time.Second

// minCreateArgs is the number of positional fields a create/create_async
// request must carry before any trailing k=v parameters, per spec §4.10.
const minCreateArgs = 5

// SessionProxy is the curve-encrypted command endpoint clients use to
// create, query, and tear down engine sessions, per spec §4.10.
type SessionProxy struct {
	sessionPort   int
	keyPair       KeyPair
	authenticator *account.Authenticator
	sessions      *engine.Manager
}

// NewSessionProxy builds a SessionProxy.
func NewSessionProxy(ports config.Ports, keyPair KeyPair, authenticator *account.Authenticator, sessions *engine.Manager) *SessionProxy {
	return &SessionProxy{sessionPort: ports.Session, keyPair: keyPair, authenticator: authenticator, sessions: sessions}
}

// Run binds the curve-encrypted reply socket and serves commands, and the
// "session" bus subscription that drives activity tracking, until
// app:shutdown, at which point engine_session_manager.Shutdown is called,
// per spec §4.10.
func (sp *SessionProxy) Run(ctx context.Context, wg *sync.WaitGroup) error {
	rep, err := zmq.NewSocket(zmq.REP)
	if err != nil {
		return errors.Transport(err, "create session proxy socket")
	}
	if err := rep.SetCurveServer(1); err != nil {
		rep.Close()
		return errors.Transport(err, "enable curve server")
	}
	if err := rep.SetCurveSecretkey(sp.keyPair.Secret); err != nil {
		rep.Close()
		return errors.Transport(err, "set curve secret key")
	}
	if err := rep.Bind(tcpAddr(sp.sessionPort)); err != nil {
		rep.Close()
		return errors.Transport(err, "bind session proxy")
	}

	appSub, err := bus.NewSubscriber(bus.TopicApp)
	if err != nil {
		rep.Close()
		return err
	}
	activitySub, err := bus.NewSubscriber(bus.TopicSession)
	if err != nil {
		rep.Close()
		appSub.Close()
		return err
	}

	poller := zmq.NewPoller()
	poller.Add(rep, zmq.POLLIN)
	poller.Add(appSub.Socket(), zmq.POLLIN)
	poller.Add(activitySub.Socket(), zmq.POLLIN)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer rep.Close()
		defer appSub.Close()
		defer activitySub.Close()

		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			polled, err := poller.Poll(sessionPollTimeout)
			if err != nil {
				logger.Warnw("session proxy poll failed", "error", err)
				continue
			}

			for _, p := range polled {
				switch p.Socket {
				case rep:
					sp.handle(rep)
				case appSub.Socket():
					frame, err := appSub.Recv()
					if err != nil {
						continue
					}
					if frame == bus.CmdShutdown {
						sp.sessions.Shutdown()
						return
					}
				case activitySub.Socket():
					frame, err := activitySub.Recv()
					if err != nil {
						continue
					}
					if hex, ok := strings.CutPrefix(frame, bus.TopicSession+":"); ok {
						sp.sessions.UpdateActivity(hex)
					}
				}
			}
		}
	}()

	return nil
}

func (sp *SessionProxy) handle(rep *zmq.Socket) {
	raw, err := rep.Recv(0)
	if err != nil {
		logger.Warnw("session proxy recv failed", "error", err)
		return
	}

	request := wireproto.ParseRequest(raw)
	reply := sp.dispatch(request)

	if _, err := rep.Send(reply, 0); err != nil {
		logger.Warnw("session proxy send failed", "error", err)
	}
}

func (sp *SessionProxy) dispatch(request wireproto.Request) string {
	switch request.Command {
	case "ping":
		if len(request.Args) == 0 {
			return "pong"
		}
		return sp.ping(request.Args[0])
	case "status":
		return sp.status(request.Args)
	case "create":
		return sp.create(request.Args, false)
	case "create_async":
		return sp.create(request.Args, true)
	case "connect", "disconnect":
		return sp.forward(request)
	case "list":
		return sp.list()
	default:
		logger.Warnw("session proxy: unknown command", "command", request.Command)
		return ""
	}
}

func (sp *SessionProxy) ping(secret string) string {
	if err := sp.sessions.Ping(secret); err != nil {
		return wireproto.Join("pang", secret, err.Error())
	}
	return wireproto.Join("pong", secret)
}

func (sp *SessionProxy) status(args []string) string {
	if len(args) != 1 {
		return wireproto.FormatReply(wireproto.InvalidRequestParameters, "bad status args")
	}
	secret := args[0]
	status, ok := sp.sessions.Status(secret)
	if !ok {
		return wireproto.FormatReply(wireproto.InvalidRequestParameters, "unknown secret")
	}
	return wireproto.Join(secret, strconv.Itoa(int(status)))
}

func (sp *SessionProxy) create(args []string, async bool) string {
	username, password, width, height, keyboard, params, err := parseCreateArgs(args)
	if err != nil {
		return wireproto.FormatReply(wireproto.InvalidRequestParameters, err.Error())
	}

	authSession, err := sp.authenticator.Authenticate(username, password)
	if err != nil {
		return wireproto.FormatReply(wireproto.AuthenticationError, err.Error())
	}

	cfg := engine.SessionConfig{
		KeyboardLayout:   keyboard,
		Resolution:       sesman.ScreenResolution{Width: width, Height: height},
		EngineParameters: params,
	}

	if async {
		secret, status, err := sp.sessions.CreateAsync(authSession.Account, cfg.Resolution, authSession.Environment, cfg)
		if err != nil {
			return wireproto.FormatReply(wireproto.CreationError, err.Error())
		}
		return wireproto.Join(wireproto.FormatReply(wireproto.Success, secret), strconv.Itoa(int(status)))
	}

	secret, err := sp.sessions.GetOrCreate(authSession.Account, cfg.Resolution, authSession.Environment, cfg)
	if err != nil {
		return wireproto.FormatReply(wireproto.CreationError, err.Error())
	}
	return wireproto.FormatReply(wireproto.Success, secret)
}

func (sp *SessionProxy) forward(request wireproto.Request) string {
	if len(request.Args) == 0 {
		return wireproto.FormatReply(wireproto.InvalidRequestParameters, "missing secret")
	}
	secret := request.Args[0]
	raw := wireproto.Join(append([]string{request.Command}, request.Args...)...)
	reply, err := sp.sessions.SendRequest(secret, raw)
	if err != nil {
		logger.Warnw("session proxy: forward failed", "secret", secret, "error", err)
		return ""
	}
	return reply
}

func (sp *SessionProxy) list() string {
	rows := make([]string, 0)
	for _, info := range sp.sessions.List() {
		rows = append(rows, wireproto.Join(
			"id="+info.Secret,
			"width="+strconv.Itoa(info.Width),
			"height="+strconv.Itoa(info.Height),
			"username="+info.Username,
			"uid="+strconv.Itoa(int(info.UID)),
		))
	}
	return strings.Join(rows, "\n")
}

// parseCreateArgs decodes the base64 username/password and parses the
// resolution and keyboard layout, plus any trailing k=v parameters, per
// spec §4.10's create/create_async grammar.
func parseCreateArgs(args []string) (username, password string, width, height int, keyboard string, params map[string]string, err error) {
	if len(args) < minCreateArgs {
		return "", "", 0, 0, "", nil, errors.Newf("expected at least %d fields, got %d", minCreateArgs, len(args))
	}

	userBytes, err := base64.StdEncoding.DecodeString(args[0])
	if err != nil {
		return "", "", 0, 0, "", nil, errors.Wrap(err, "decode username")
	}
	passBytes, err := base64.StdEncoding.DecodeString(args[1])
	if err != nil {
		return "", "", 0, 0, "", nil, errors.Wrap(err, "decode password")
	}
	width, err = strconv.Atoi(args[2])
	if err != nil {
		return "", "", 0, 0, "", nil, errors.Wrap(err, "parse width")
	}
	height, err = strconv.Atoi(args[3])
	if err != nil {
		return "", "", 0, 0, "", nil, errors.Wrap(err, "parse height")
	}
	keyboard = args[4]

	params = make(map[string]string)
	for _, kv := range args[minCreateArgs:] {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		params[parts[0]] = parts[1]
	}

	return string(userBytes), string(passBytes), width, height, keyboard, params, nil
}
