package meet

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	meetapi "google.golang.org/api/meet/v2"

	"gmpro/internal/app/roster"
	"gmpro/internal/pkg/logx"
)

const (
	// DefaultPageSize is used when ListOptions.PageSize is not positive.
	DefaultPageSize int64 = 100

	meetingCodeScanSize int64 = 50

	conferenceRecordPrefix = "conferenceRecords/"
	spacePrefix            = "spaces/"
)

var meetingCodePattern = regexp.MustCompile(`^[a-z]{3}-[a-z]{4}-[a-z]{3}$`)

// IsMeetingCode reports whether s looks like a Meet meeting code (abc-defg-hij).
func IsMeetingCode(s string) bool {
	return meetingCodePattern.MatchString(s)
}

// ListOptions controls paging of FetchParticipants.
type ListOptions struct {
	PageSize  int64
	PageToken string
}

// Page is one page of participants of a resolved conference.
type Page struct {
	ConferenceRecord string               `json:"conferenceRecord"`
	Participants     []roster.Participant `json:"participants"`
	NextPageToken    string               `json:"nextPageToken,omitempty"`
}

// Source resolves meeting identifiers and lists their participants.
type Source struct {
	newAPI APIFactory
}

func NewSource(factory APIFactory) *Source {
	return &Source{newAPI: factory}
}

// FetchParticipants resolves identifier to a conference record and returns one page of its
// participants. identifier may be a conference record name, a space name, a meeting code
// or a bare conference id.
func (s *Source) FetchParticipants(ctx context.Context, identifier, accessToken string, opts ListOptions) (*Page, error) {
	if accessToken == "" {
		return nil, ErrUnauthenticated
	}

	api, err := s.newAPI(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	record, err := resolveConference(ctx, api, strings.TrimSpace(identifier))
	if err != nil {
		return nil, classify(err)
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	res, err := api.ListParticipants(ctx, record, pageSize, opts.PageToken)
	if err != nil {
		return nil, classify(err)
	}

	participants := make([]roster.Participant, 0, len(res.Participants))
	for _, p := range res.Participants {
		participants = append(participants, toParticipant(p))
	}

	return &Page{
		ConferenceRecord: record,
		Participants:     participants,
		NextPageToken:    res.NextPageToken,
	}, nil
}

// FetchAll follows page tokens and returns every participant of the conference.
func (s *Source) FetchAll(ctx context.Context, identifier, accessToken string) ([]roster.Participant, error) {
	var all []roster.Participant
	opts := ListOptions{}

	for {
		page, err := s.FetchParticipants(ctx, identifier, accessToken, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Participants...)

		if page.NextPageToken == "" {
			return all, nil
		}
		// Later pages skip resolution.
		identifier = page.ConferenceRecord
		opts.PageToken = page.NextPageToken
	}
}

func resolveConference(ctx context.Context, api API, identifier string) (string, error) {
	switch {
	case strings.HasPrefix(identifier, conferenceRecordPrefix):
		return identifier, nil

	case strings.HasPrefix(identifier, spacePrefix):
		record, err := conferenceForSpace(ctx, api, identifier)
		if err != nil {
			return "", err
		}
		if record != "" {
			return record, nil
		}
		return "", fmt.Errorf("%w: no conference for %s", ErrNotFound, identifier)

	case IsMeetingCode(identifier):
		record, err := conferenceForMeetingCode(ctx, api, identifier)
		if err != nil {
			return "", err
		}
		if record != "" {
			return record, nil
		}
	}

	return conferenceRecordPrefix + identifier, nil
}

// conferenceForSpace returns the active conference of space, else its most recent one.
func conferenceForSpace(ctx context.Context, api API, space string) (string, error) {
	sp, err := api.GetSpace(ctx, space)
	if err != nil {
		return "", err
	}

	if sp.ActiveConference != nil && sp.ActiveConference.ConferenceRecord != "" {
		return sp.ActiveConference.ConferenceRecord, nil
	}

	name := sp.Name
	if name == "" {
		name = space
	}
	records, err := api.ListConferenceRecords(ctx, fmt.Sprintf("space.name=%q", name), 1)
	if err != nil {
		return "", err
	}
	if len(records) > 0 {
		return records[0].Name, nil
	}
	return "", nil
}

func conferenceForMeetingCode(ctx context.Context, api API, code string) (string, error) {
	record, err := conferenceForSpace(ctx, api, spacePrefix+code)
	switch {
	case err == nil && record != "":
		return record, nil
	case err != nil && isAuthFailure(err):
		return "", err
	case err != nil:
		logx.Debug("Space lookup by meeting code failed, scanning recent conferences", "code", code, "error", err.Error())
	}

	records, err := api.ListConferenceRecords(ctx, "", meetingCodeScanSize)
	if err != nil {
		return "", err
	}

	for _, rec := range records {
		if rec.Space == "" {
			continue
		}
		sp, err := api.GetSpace(ctx, rec.Space)
		if err != nil {
			// Spaces the caller cannot read are skipped.
			continue
		}
		if sp.MeetingCode == code {
			return rec.Name, nil
		}
	}
	return "", nil
}

func isAuthFailure(err error) bool {
	code := statusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

func toParticipant(p *meetapi.Participant) roster.Participant {
	out := roster.Participant{
		ID:     lastSegment(p.Name),
		Status: roster.StatusJoined,
	}

	switch {
	case p.SignedinUser != nil:
		out.Type = roster.TypeSignedIn
		out.Name = orDefault(p.SignedinUser.DisplayName, "Unknown User")
		out.Email = p.SignedinUser.User
	case p.AnonymousUser != nil:
		out.Type = roster.TypeAnonymous
		out.Name = orDefault(p.AnonymousUser.DisplayName, "Anonymous")
	case p.PhoneUser != nil:
		out.Type = roster.TypePhone
		out.Name = orDefault(p.PhoneUser.DisplayName, "Phone User")
	default:
		out.Type = roster.TypeAnonymous
		out.Name = "Unknown"
	}

	if t, err := time.Parse(time.RFC3339Nano, p.EarliestStartTime); err == nil {
		out.JoinedAt = t
	}
	if p.LatestEndTime != "" {
		out.Status = roster.StatusLeft
		if t, err := time.Parse(time.RFC3339Nano, p.LatestEndTime); err == nil {
			out.LeftAt = &t
		}
	}

	return out
}

func lastSegment(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
