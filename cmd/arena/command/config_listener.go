package command

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"os"

	"github.com/pixil98/go-arena/internal/listener"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-service"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"
)

type ListenerType int

const (
	ListenerTypeTCP ListenerType = iota
	ListenerTypeTelnet
	ListenerTypeSSH
	ListenerTypeWebsocket
)

func (lt ListenerType) String() string {
	switch lt {
	case ListenerTypeTCP:
		return "tcp"
	case ListenerTypeTelnet:
		return "telnet"
	case ListenerTypeSSH:
		return "ssh"
	case ListenerTypeWebsocket:
		return "websocket"
	default:
		return fmt.Sprintf("listener(%d)", int(lt))
	}
}

func (lt *ListenerType) UnmarshalText(text []byte) error {
	switch string(text) {
	case "tcp":
		*lt = ListenerTypeTCP
	case "telnet":
		*lt = ListenerTypeTelnet
	case "ssh":
		*lt = ListenerTypeSSH
	case "websocket":
		*lt = ListenerTypeWebsocket
	default:
		return fmt.Errorf("unknown listener type: %s", text)
	}
	return nil
}

type ListenerConfig struct {
	Protocol    ListenerType `json:"protocol"`
	Port        uint16       `json:"port"`
	HostKeyPath string       `json:"host_key_path,omitempty"`
	Path        string       `json:"path,omitempty"`
}

func (cl *ListenerConfig) validate() error {
	el := errors.NewErrorList()

	if cl.Port == 0 {
		el.Add(fmt.Errorf("port must be set to a positive integer"))
	}
	if cl.HostKeyPath != "" && cl.Protocol != ListenerTypeSSH {
		el.Add(fmt.Errorf("host_key_path only applies to ssh listeners"))
	}
	if cl.Path != "" {
		if cl.Protocol != ListenerTypeWebsocket {
			el.Add(fmt.Errorf("path only applies to websocket listeners"))
		} else if cl.Path[0] != '/' {
			el.Add(fmt.Errorf("path must start with /"))
		}
	}

	return el.Err()
}

func (cl *ListenerConfig) BuildListener(cm *listener.ConnectionManager) (service.Worker, error) {
	switch cl.Protocol {
	case ListenerTypeTCP:
		return listener.NewTcpListener(cl.Port, cm), nil
	case ListenerTypeTelnet:
		return listener.NewTelnetListener(cl.Port, cm), nil
	case ListenerTypeSSH:
		hostKey, err := cl.loadOrGenerateHostKey()
		if err != nil {
			return nil, fmt.Errorf("setting up ssh host key: %w", err)
		}
		return listener.NewSshListener(cl.Port, cm, hostKey), nil
	case ListenerTypeWebsocket:
		return listener.NewWebsocketListener(cl.Port, cl.Path, cm), nil
	default:
		return nil, fmt.Errorf("unknown listener type: %v", cl.Protocol)
	}
}

func (cl *ListenerConfig) loadOrGenerateHostKey() (ssh.Signer, error) {
	if cl.HostKeyPath != "" {
		keyBytes, err := os.ReadFile(cl.HostKeyPath)
		if err != nil {
			return nil, fmt.Errorf("reading host key %q: %w", cl.HostKeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(keyBytes)
		if err != nil {
			return nil, fmt.Errorf("parsing host key %q: %w", cl.HostKeyPath, err)
		}
		return signer, nil
	}

	zap.S().Warnw("no host_key_path configured for ssh listener, generating ephemeral key", "port", cl.Port)
	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(privKey)
	if err != nil {
		return nil, fmt.Errorf("creating signer from ephemeral key: %w", err)
	}
	return signer, nil
}
