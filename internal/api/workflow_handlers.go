package api

import (
	"github.com/labstack/echo/v4"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

type acceptRequest struct {
	AssistantID string `json:"assistant_id"`
}

type saveWorkflowRequest struct {
	Name string `json:"name"`
}

func (s *Server) getSnapshot(c echo.Context) error {
	snap, err := s.orch.Snapshot()
	if err != nil {
		return err
	}
	return ok(c, snap)
}

func (s *Server) closeSession(c echo.Context) error {
	s.orch.CloseConversation()
	return ok(c, nil)
}

func (s *Server) sendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	msg, err := s.orch.SendMessage(req.Content)
	if err != nil {
		return err
	}
	return created(c, msg)
}

func (s *Server) acceptSuggestion(c echo.Context) error {
	var req acceptRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	step, err := s.orch.AcceptSuggestion(req.AssistantID)
	if err != nil {
		return err
	}
	return ok(c, step)
}

func (s *Server) declineSuggestion(c echo.Context) error {
	if err := s.orch.DeclineSuggestion(); err != nil {
		return err
	}
	return ok(c, nil)
}

func (s *Server) saveWorkflow(c echo.Context) error {
	var req saveWorkflowRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	tmpl, err := s.orch.SaveWorkflow(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return created(c, tmpl)
}

func (s *Server) setActiveAssistant(c echo.Context) error {
	var req idRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	if _, found := s.catalog.LookupAssistant(req.ID); !found {
		return notFound("assistant", req.ID)
	}
	if err := s.orch.SetActiveAssistant(req.ID); err != nil {
		return err
	}
	return s.getSnapshot(c)
}

func (s *Server) setModel(c echo.Context) error {
	var req idRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("Invalid JSON format")
	}
	if _, found := s.catalog.LookupModel(req.ID); !found {
		return notFound("model", req.ID)
	}
	if err := s.orch.SetModel(req.ID); err != nil {
		return err
	}
	return s.getSnapshot(c)
}

func (s *Server) listTimers(c echo.Context) error {
	return ok(c, s.orch.PendingTimers())
}

func (s *Server) listTemplates(c echo.Context) error {
	tmpls, err := s.templates.ListTemplates(c.Request().Context())
	if err != nil {
		return err
	}
	return ok(c, tmpls)
}

func (s *Server) getTemplate(c echo.Context) error {
	tmpl, err := s.templates.GetTemplate(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return ok(c, tmpl)
}
