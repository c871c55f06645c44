package group

import (
	"context"
	"strings"

	"anoa.com/fitsquad/internal/entity"
	groupDto "anoa.com/fitsquad/internal/modules/group/dto"
	groupRepo "anoa.com/fitsquad/internal/modules/group/repository"
	leaderboardDto "anoa.com/fitsquad/internal/modules/leaderboard/dto"
	"anoa.com/fitsquad/pkg/apperror"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Ranker ranks an arbitrary set of users against each other.
type Ranker interface {
	RankUsers(ctx context.Context, userIDs []uuid.UUID) ([]leaderboardDto.LeaderboardEntry, error)
}

type GroupService interface {
	CreateGroup(ctx context.Context, userID uuid.UUID, req groupDto.CreateGroupRequest) (*groupDto.GroupResponse, error)
	GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupResponse, error)
	ListMyGroups(ctx context.Context, userID uuid.UUID) ([]groupDto.GroupResponse, error)
	JoinGroup(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupResponse, error)
	LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error
	GroupLeaderboard(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupLeaderboardResponse, error)
}

type groupService struct {
	repo   groupRepo.GroupRepository
	ranker Ranker
	log    logrus.FieldLogger
}

func NewGroupService(repo groupRepo.GroupRepository, ranker Ranker, log logrus.FieldLogger) GroupService {
	return &groupService{repo: repo, ranker: ranker, log: log}
}

func (s *groupService) CreateGroup(ctx context.Context, userID uuid.UUID, req groupDto.CreateGroupRequest) (*groupDto.GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.ErrInvalidInput
	}

	group := &entity.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		OwnerID:     userID,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"group_id": group.ID, "owner_id": userID}).Info("group created")
	return toResponse(group, 1, true), nil
}

func (s *groupService) GetGroup(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupResponse, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, userID, group)
}

func (s *groupService) ListMyGroups(ctx context.Context, userID uuid.UUID) ([]groupDto.GroupResponse, error) {
	groups, err := s.repo.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	counts, err := s.repo.CountMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	resp := make([]groupDto.GroupResponse, 0, len(groups))
	for i := range groups {
		resp = append(resp, *toResponse(&groups[i], counts[groups[i].ID], true))
	}
	return resp, nil
}

func (s *groupService) JoinGroup(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupResponse, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AddMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.describe(ctx, userID, group)
}

// LeaveGroup removes a member. The owner stays for the lifetime of the group.
func (s *groupService) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.OwnerID == userID {
		return apperror.ErrForbidden
	}

	member, err := s.repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return apperror.ErrNotFound
	}
	return s.repo.RemoveMember(ctx, groupID, userID)
}

// GroupLeaderboard ranks the members against each other. Only members may look.
func (s *groupService) GroupLeaderboard(ctx context.Context, userID, groupID uuid.UUID) (*groupDto.GroupLeaderboardResponse, error) {
	group, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	memberIDs, err := s.repo.MemberIDs(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !contains(memberIDs, userID) {
		return nil, apperror.ErrForbidden
	}

	entries, err := s.ranker.RankUsers(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []leaderboardDto.LeaderboardEntry{}
	}

	return &groupDto.GroupLeaderboardResponse{
		Group:   *toResponse(group, int64(len(memberIDs)), true),
		Entries: entries,
	}, nil
}

func (s *groupService) describe(ctx context.Context, userID uuid.UUID, group *entity.Group) (*groupDto.GroupResponse, error) {
	counts, err := s.repo.CountMembers(ctx, []uuid.UUID{group.ID})
	if err != nil {
		return nil, err
	}
	member, err := s.repo.IsMember(ctx, group.ID, userID)
	if err != nil {
		return nil, err
	}
	return toResponse(group, counts[group.ID], member), nil
}

func toResponse(g *entity.Group, members int64, isMember bool) *groupDto.GroupResponse {
	return &groupDto.GroupResponse{
		ID:          g.ID,
		Name:        g.Name,
		Description: g.Description,
		OwnerID:     g.OwnerID,
		MemberCount: members,
		IsMember:    isMember,
		CreatedAt:   g.CreatedAt,
	}
}

func contains(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
