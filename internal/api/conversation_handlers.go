package api

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/BTreeMap/ThoughtWeaver/internal/models"
)

type createConversationRequest struct {
	Prompt       string   `json:"prompt"`
	WorkflowID   string   `json:"workflow_id"`
	AssistantIDs []string `json:"assistant_ids"`
}

type renameRequest struct {
	Title string `json:"title"`
}

type projectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type assignRequest struct {
	ConversationID string `json:"conversation_id"`
}

type conversationView struct {
	models.Conversation
	ProjectID string `json:"project_id,omitempty"`
}

// listConversations supports ?q= search and ?limit= recent filtering.
func (s *Server) listConversations(c echo.Context) error {
	convs := s.orch.Session().Conversations
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		return ok(c, convs.Search(q))
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return badRequest("limit must be a non-negative integer")
		}
		return ok(c, convs.Recent(limit))
	}
	return ok(c, convs.List())
}

func (s *Server) createConversation(c echo.Context) error {
	var req createConversationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	for _, id := range req.AssistantIDs {
		if _, found := s.catalog.LookupAssistant(id); !found {
			return notFound("assistant", id)
		}
	}
	conv, err := s.orch.CreateConversation(req.Prompt, req.WorkflowID, req.AssistantIDs)
	if err != nil {
		return err
	}
	return created(c, conv)
}

func (s *Server) getConversation(c echo.Context) error {
	convs := s.orch.Session().Conversations
	conv, err := convs.Get(c.Param("id"))
	if err != nil {
		return err
	}
	view := conversationView{Conversation: conv}
	if p, found := convs.ProjectOf(conv.ID); found {
		view.ProjectID = p.ID
	}
	return ok(c, view)
}

func (s *Server) renameConversation(c echo.Context) error {
	var req renameRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	convs := s.orch.Session().Conversations
	if err := convs.Rename(c.Param("id"), req.Title); err != nil {
		return err
	}
	conv, err := convs.Get(c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, conv)
}

func (s *Server) deleteConversation(c echo.Context) error {
	if err := s.orch.DeleteConversation(c.Param("id")); err != nil {
		return err
	}
	return ok(c, nil)
}

func (s *Server) openConversation(c echo.Context) error {
	if err := s.orch.OpenConversation(c.Param("id")); err != nil {
		return err
	}
	snap, err := s.orch.Snapshot()
	if err != nil {
		return err
	}
	return ok(c, snap)
}

func (s *Server) listProjects(c echo.Context) error {
	return ok(c, s.orch.Session().Conversations.Projects())
}

func (s *Server) createProject(c echo.Context) error {
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	p, err := s.orch.Session().Conversations.CreateProject(req.Name, req.Description)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (s *Server) getProject(c echo.Context) error {
	p, err := s.orch.Session().Conversations.Project(c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) deleteProject(c echo.Context) error {
	if err := s.orch.Session().Conversations.DeleteProject(c.Param("id")); err != nil {
		return err
	}
	return ok(c, nil)
}

func (s *Server) assignConversation(c echo.Context) error {
	var req assignRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	if req.ConversationID == "" {
		return badRequest("conversation_id is required")
	}
	convs := s.orch.Session().Conversations
	if err := convs.Assign(req.ConversationID, c.Param("id")); err != nil {
		return err
	}
	p, err := convs.Project(c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) unassignConversation(c echo.Context) error {
	convs := s.orch.Session().Conversations
	p, found := convs.ProjectOf(c.Param("conversationID"))
	if !found || p.ID != c.Param("id") {
		return models.Reject("Unassign", "conversation is not in this project")
	}
	if err := convs.Unassign(c.Param("conversationID")); err != nil {
		return err
	}
	p, err := convs.Project(c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (s *Server) createConversationInProject(c echo.Context) error {
	conv, err := s.orch.CreateConversationInProject(c.Param("id"))
	if err != nil {
		return err
	}
	return created(c, conv)
}
