package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"taskboard/internal/access"
	"taskboard/internal/model"
	"taskboard/internal/store"
)

// RequestJoin asks for membership of a private board. A rejected or
// approved request that no longer applies is reopened.
func (s *Service) RequestJoin(ctx context.Context, actor, boardID uuid.UUID) (JoinRequestView, error) {
	var out JoinRequestView
	err := s.run(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if !b.Private {
			return invalid("public boards are joined by opening them")
		}
		if _, err := u.authorize(access.ActionRequestJoin, b); err != nil {
			return err
		}

		req, err := u.tx.FindJoinRequest(b.ID, actor)
		switch {
		case errors.Is(err, store.ErrNotFound):
			req = &model.JoinRequest{BoardID: b.ID, UserID: actor}
		case err != nil:
			return err
		case req.Status == model.JoinPending:
			return conflict("a join request is already pending")
		}
		req.Status = model.JoinPending
		if err := u.tx.SaveJoinRequest(req); err != nil {
			return err
		}
		out = joinRequestView(req)
		return u.boardEvent(b, "join.requested", map[string]any{"request": out})
	})
	return out, err
}

func (s *Service) PendingJoinRequests(ctx context.Context, actor, boardID uuid.UUID) ([]JoinRequestView, error) {
	var out []JoinRequestView
	err := s.view(ctx, actor, func(u *unit) error {
		b, err := u.board(boardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionListRequests, b); err != nil {
			return err
		}
		reqs, err := u.tx.PendingJoinRequests(b.ID)
		if err != nil {
			return err
		}
		out = make([]JoinRequestView, 0, len(reqs))
		for i := range reqs {
			out = append(out, joinRequestView(&reqs[i]))
		}
		return nil
	})
	return out, err
}

// RespondJoin approves or rejects a pending request. Approval adds the
// requester with role, member when empty. A requester who already holds a
// membership keeps it.
func (s *Service) RespondJoin(ctx context.Context, actor, requestID uuid.UUID, approve bool, role model.Role) (JoinRequestView, error) {
	if role == model.RoleNone {
		role = model.RoleMember
	}
	if approve && role != model.RoleAdmin && role != model.RoleMember {
		return JoinRequestView{}, invalid("board role must be admin or member")
	}

	var out JoinRequestView
	err := s.run(ctx, actor, func(u *unit) error {
		req, err := u.tx.GetJoinRequest(requestID)
		if err != nil {
			return lookup(err, "join request")
		}
		b, err := u.lockBoard(req.BoardID)
		if err != nil {
			return err
		}
		if _, err := u.authorize(access.ActionRespondJoin, b); err != nil {
			return err
		}
		if req, err = u.tx.GetJoinRequest(requestID); err != nil {
			return lookup(err, "join request")
		}
		if req.Status != model.JoinPending {
			return conflict("join request is already %s", req.Status)
		}

		event := "join.rejected"
		req.Status = model.JoinRejected
		if approve {
			event = "join.approved"
			req.Status = model.JoinApproved
			if _, err := u.tx.AddBoardMember(&model.BoardMember{BoardID: b.ID, UserID: req.UserID, Role: role}); err != nil {
				return err
			}
		}
		if err := u.tx.SaveJoinRequest(req); err != nil {
			return err
		}
		out = joinRequestView(req)
		payload := map[string]any{"request": out}
		if err := u.boardEvent(b, event, payload); err != nil {
			return err
		}
		if !approve {
			u.userEvent(req.UserID, event, map[string]any{"request": out, "board_id": b.ID})
		}
		return nil
	})
	return out, err
}
