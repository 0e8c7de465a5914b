package client

import "context"

// MemberService handles tenant membership endpoints.
type MemberService struct {
	c *Client
}

// List returns the full member roster of the current tenant. The roster
// is bounded; paging and filtering happen client-side.
func (s *MemberService) List(ctx context.Context) ([]MemberRow, error) {
	var resp []MemberRow
	if err := s.c.get(ctx, "/members", nil, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return resp, nil
}

// Create creates a user (if missing) and adds them to the current tenant.
func (s *MemberService) Create(ctx context.Context, req *CreateMemberRequest) (*CreatedMember, error) {
	var resp CreatedMember
	if err := s.c.post(ctx, "/members", req, &resp, withToken|withTenant); err != nil {
		return nil, err
	}
	return &resp, nil
}
