package token

import (
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/oauth2"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/models"
	"guardian/internal/auth/store/consent"
	"guardian/internal/auth/store/session"
	dErrors "guardian/pkg/domain-errors"
)

// authorize runs authorize, login and consent for thirdParty and returns the
// issued code.
func (s *IssuerSuite) authorize(coord *coordinator.Coordinator, verifier string, consented ...string) string {
	redirect, err := coord.Initiate(s.ctx, testTenant, coordinator.AuthorizeInput{
		ClientID:            thirdParty.String(),
		ResponseType:        "code",
		Scope:               "openid profile",
		RedirectURI:         testRedirect,
		State:               "xyz",
		Nonce:               "abc",
		CodeChallenge:       oauth2.S256ChallengeFromVerifier(verifier),
		CodeChallengeMethod: "S256",
	})
	s.Require().NoError(err)
	s.Require().Equal(models.StateAwaitingLogin, redirect.State)

	redirect, err = coord.AcceptLogin(s.ctx, testTenant, redirect.Challenge, models.Identity{
		UserID:      testUser,
		AuthMethods: []models.AuthMethod{models.AuthMethodPassword},
	})
	s.Require().NoError(err)
	s.Require().Equal(models.StateAwaitingConsent, redirect.State)

	redirect, err = coord.AcceptConsent(s.ctx, testTenant, redirect.Challenge, testUser, consented)
	s.Require().NoError(err)
	s.Require().Equal(models.StateCodeIssued, redirect.State)

	loc, err := url.Parse(redirect.Location)
	s.Require().NoError(err)
	s.Equal("xyz", loc.Query().Get("state"))
	return loc.Query().Get("code")
}

func (s *IssuerSuite) newCoordinator() *coordinator.Coordinator {
	sessions := session.New(func() time.Time { return s.now })
	return coordinator.New(s.registry, s.registry, s.registry, consent.NewInMemory(), sessions)
}

func (s *IssuerSuite) TestAuthorizationCodeFlow() {
	coord := s.newCoordinator()
	verifier := oauth2.GenerateVerifier()
	code := s.authorize(coord, verifier, "openid")
	s.Require().NotEmpty(code)

	in := coordinator.ExchangeInput{
		Code:         code,
		ClientID:     thirdParty,
		RedirectURI:  testRedirect,
		CodeVerifier: verifier,
	}
	grant, err := coord.ExchangeCode(s.ctx, testTenant, in)
	s.Require().NoError(err)
	s.Equal([]string{"openid"}, grant.Scopes)

	set, err := s.issuer.Mint(s.ctx, grant, models.DeviceMetadata{})
	s.Require().NoError(err)
	s.Equal("openid", set.Scope)

	idToken := s.verify(set.IDToken, thirdParty)
	s.Equal(testUser.String(), idToken.Subject)
	s.Equal("abc", idToken.Nonce)
	s.Equal(s.now.Unix(), idToken.AuthTime)
	s.Equal("openid", idToken.Scope)

	access := s.verify(set.AccessToken, thirdParty)
	s.Equal("openid", access.Scope)

	_, err = coord.ExchangeCode(s.ctx, testTenant, in)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidCode))
}

func (s *IssuerSuite) TestSecondLoginSkipsConsent() {
	coord := s.newCoordinator()
	s.authorize(coord, oauth2.GenerateVerifier(), "openid", "profile")

	redirect, err := coord.Initiate(s.ctx, testTenant, coordinator.AuthorizeInput{
		ClientID:     thirdParty.String(),
		ResponseType: "code",
		Scope:        "openid profile",
		RedirectURI:  testRedirect,
	})
	s.Require().NoError(err)
	redirect, err = coord.AcceptLogin(s.ctx, testTenant, redirect.Challenge, models.Identity{UserID: testUser})
	s.Require().NoError(err)
	s.Equal(models.StateCodeIssued, redirect.State)
}

func (s *IssuerSuite) TestConcurrentExchangeHasOneWinner() {
	coord := s.newCoordinator()
	verifier := oauth2.GenerateVerifier()
	code := s.authorize(coord, verifier, "openid", "profile")

	const callers = 16
	var (
		wg    sync.WaitGroup
		wins  atomic.Int32
		start = make(chan struct{})
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := coord.ExchangeCode(s.ctx, testTenant, coordinator.ExchangeInput{
				Code:         code,
				ClientID:     thirdParty,
				RedirectURI:  testRedirect,
				CodeVerifier: verifier,
			})
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	s.Equal(int32(1), wins.Load())
}
