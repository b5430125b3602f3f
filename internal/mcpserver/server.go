// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes a notebook session to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/notetoself/internal/apperr"
	"github.com/starford/notetoself/internal/client"
	"github.com/starford/notetoself/internal/session"
)

const formatURI = "notetoself://note-format"

// Notebook is the session the tools act on.
type Notebook interface {
	State() session.State
	Open(ctx context.Context, title string) session.Transition
	Save(ctx context.Context, title, body string) session.Transition
}

// Server wraps the MCP server with notebook tools.
type Server struct {
	mcp *server.MCPServer
	nb  Notebook
	now func() time.Time
}

// New creates a new MCP server with all notebook tools registered.
func New(nb Notebook) *Server {
	s := &Server{nb: nb, now: time.Now}

	s.mcp = server.NewMCPServer(
		"Note To Self",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List the titles in the notebook index, in the order they were first saved."),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the body of a note by its exact, case-sensitive title."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title as listed by list_notes")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("save_note",
		mcp.WithDescription("Create or overwrite a note and add its title to the index. "+
			"Saving an existing title replaces its body. See the "+formatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title (case-sensitive, must not be notes.json)")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Plain-text note body")),
	), s.saveNote)

	s.mcp.AddTool(mcp.NewTool("session_status",
		mcp.WithDescription("Report the session status, index size and any recorded errors."),
	), s.sessionStatus)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format",
			mcp.WithResourceDescription("How notes and the title index are stored."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	titles := s.nb.State().Index().Titles()
	if len(titles) == 0 {
		return mcp.NewToolResultText("no notes"), nil
	}
	return mcp.NewToolResultText(strings.Join(titles, "\n")), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tr := s.nb.Open(ctx, title)
	if err := client.OpenError(tr, title); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", title)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, _ := tr.State.CurrentNote()
	return mcp.NewToolResultText(n.Body), nil
}

func (s *Server) saveNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	err = client.SaveError(s.nb.Save(ctx, title, body))
	switch {
	case err == nil:
		return mcp.NewToolResultText(fmt.Sprintf("saved: %s", title)), nil
	case errors.Is(err, client.ErrIndexNotUpdated):
		// The note is stored; report success with a warning.
		return mcp.NewToolResultText(fmt.Sprintf("saved: %s (warning: %v)", title, err)), nil
	}
	return mcp.NewToolResultError(err.Error()), nil
}

type statusResult struct {
	Session       string   `json:"session"`
	Authenticated bool     `json:"authenticated"`
	PublicKey     string   `json:"publicKey,omitempty"`
	Status        string   `json:"status"`
	Busy          bool     `json:"busy"`
	Titles        int      `json:"titles"`
	IndexStale    bool     `json:"indexStale"`
	Saved         bool     `json:"saved"`
	Errors        []string `json:"errors"`
}

func (s *Server) sessionStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st := s.nb.State()
	res := statusResult{
		Session:       st.ID().String(),
		Authenticated: st.Authenticated(),
		Status:        st.Status().String(),
		Busy:          st.Busy(),
		Titles:        st.Index().Len(),
		IndexStale:    st.IndexStale(),
		Saved:         st.Succeeded(s.now()),
		Errors:        []string{},
	}
	if id, ok := st.Identity(); ok {
		res.PublicKey = id.PublicKeyHex()
	}
	for _, e := range st.Errors() {
		res.Errors = append(res.Errors, e.Error())
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormat,
		},
	}, nil
}
