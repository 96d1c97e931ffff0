package lsp

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhamidi/javap/classfile"
	"github.com/dhamidi/javap/format"
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"
)

const lsName = "javap"

// DisassembleCommand is the workspace/executeCommand name served by the
// server. Its first argument is the URI or path of a class file; any further
// string arguments name options: "constants", "lines", "method-details" and
// "skip-missing-code".
const DisassembleCommand = "javap.disassemble"

var log = commonlog.GetLogger("javap.lsp")

type Server struct {
	handler protocol.Handler
	server  *server.Server
	version string
}

func NewServer(version string) *Server {
	s := &Server{
		version: version,
	}

	s.handler = protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		Shutdown:                s.shutdown,
		SetTrace:                s.setTrace,
		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}

	s.server = server.NewServer(&s.handler, lsName, false)

	return s
}

func (s *Server) RunStdio() error {
	return s.server.RunStdio()
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{DisassembleCommand},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("client initialized")
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	return ExecuteCommand(params.Command, params.Arguments)
}

// ExecuteCommand runs a workspace command and returns its result, the
// disassembly text for DisassembleCommand.
func ExecuteCommand(command string, arguments []any) (any, error) {
	if command != DisassembleCommand {
		return nil, fmt.Errorf("unknown command %q", command)
	}
	if len(arguments) == 0 {
		return nil, fmt.Errorf("%s: missing class file argument", command)
	}

	target, ok := arguments[0].(string)
	if !ok {
		return nil, fmt.Errorf("%s: class file argument must be a string, got %T", command, arguments[0])
	}
	path, err := uriToPath(target)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	opts, err := parseOptions(arguments[1:])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", command, err)
	}

	log.Debugf("disassembling %s", path)
	return Disassemble(path, opts...)
}

// Disassemble parses the class file at path and returns its javap listing.
func Disassemble(path string, opts ...format.Option) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	cf, err := classfile.ParseFile(abs)
	if err != nil {
		return "", fmt.Errorf("parse class file: %w", err)
	}

	var sb strings.Builder
	opts = append([]format.Option{format.WithFilePath(abs)}, opts...)
	if err := format.NewJavapEncoder(&sb, opts...).Encode(cf); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func parseOptions(arguments []any) ([]format.Option, error) {
	var opts []format.Option
	for _, arg := range arguments {
		name, _ := arg.(string)
		switch name {
		case "constants":
			opts = append(opts, format.WithConstants())
		case "lines":
			opts = append(opts, format.WithLineNumbers())
		case "method-details":
			opts = append(opts, format.WithMethodDetails())
		case "skip-missing-code":
			opts = append(opts, format.WithSkipMissingCode())
		default:
			return nil, fmt.Errorf("unknown option %v", arg)
		}
	}
	return opts, nil
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}
