package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"guardian/internal/auth/coordinator"
	"guardian/internal/auth/device"
	"guardian/internal/auth/models"
	jwttoken "guardian/internal/jwt_token"
	"guardian/internal/ratelimit"
	"guardian/internal/tenant"
	tenantModel "guardian/internal/tenant/models"
	"guardian/internal/tenant/secrets"
	"guardian/internal/transport/http/mocks"
	id "guardian/pkg/domain"
	dErrors "guardian/pkg/domain-errors"
	"guardian/pkg/platform/middleware/admin"
	"guardian/pkg/testutil"
)

const (
	testTenant   id.TenantID = "acme"
	testIssuer               = "https://id.acme.test"
	testLogin                = "https://login.acme.test"
	testRedirect             = "https://app.acme.test/cb"
	testAdmin                = "admin-secret"
	console      id.ClientID = "console"
	reporting    id.ClientID = "reporting"
	testUser     id.UserID   = "user-1"
)

type HandlerSuite struct {
	suite.Suite
	consoleHash   string
	reportingHash string

	coordinator *mocks.MockCoordinator
	issuer      *mocks.MockIssuer
	signer      *jwttoken.Signer
	router      http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupSuite() {
	var err error
	s.consoleHash, err = secrets.Hash("console-secret")
	s.Require().NoError(err)
	s.reportingHash, err = secrets.Hash("reporting-secret")
	s.Require().NoError(err)
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.coordinator = mocks.NewMockCoordinator(ctrl)
	s.issuer = mocks.NewMockIssuer(ctrl)

	registry := tenant.NewRegistry()
	s.Require().NoError(registry.PutTenant(&tenantModel.Tenant{
		ID:           testTenant,
		Name:         "Acme",
		Issuer:       testIssuer,
		LoginPageURI: testLogin,
		Cookies: tenantModel.CookieConfig{
			Path:     "/",
			Secure:   true,
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}))
	s.Require().NoError(registry.PutClient(&tenantModel.Client{
		ID:            console,
		TenantID:      testTenant,
		Name:          "Console",
		SecretHash:    s.consoleHash,
		RedirectURIs:  []string{testRedirect},
		GrantTypes:    []models.GrantType{models.GrantAuthorizationCode, models.GrantRefreshToken},
		AllowedScopes: []string{"openid", "profile"},
		Type:          tenantModel.ClientTypeFirstParty,
	}))
	s.Require().NoError(registry.PutClient(&tenantModel.Client{
		ID:            reporting,
		TenantID:      testTenant,
		Name:          "Reporting",
		SecretHash:    s.reportingHash,
		RedirectURIs:  []string{testRedirect},
		GrantTypes:    []models.GrantType{models.GrantClientCredentials},
		AllowedScopes: []string{"reports:read"},
		Type:          tenantModel.ClientTypeThirdParty,
	}))

	key, err := jwttoken.GenerateSigningKey("ES256")
	s.Require().NoError(err)
	s.signer = jwttoken.NewSigner(key)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(
		s.coordinator,
		s.issuer,
		registry,
		device.NewService(false),
		NewTrustedBackend(s.issuer, testAdmin),
		s.signer,
		s.signer.Keys(),
		WithLogger(logger),
		WithAdminToken(testAdmin),
	)
	s.router = NewRouter(h, RouterConfig{
		HealthChecks: map[string]HealthCheck{
			"redis": func(context.Context) error { return nil },
		},
	})
}

func (s *HandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) tokenRequest(form url.Values) *http.Request {
	return testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/token", form)
}

func (s *HandlerSuite) jsonRequest(path string, body any) *http.Request {
	raw, err := json.Marshal(body)
	s.Require().NoError(err)
	req, err := http.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:1234"
	return req
}

func (s *HandlerSuite) TestAuthorize() {
	s.Run("redirects to the login page", func() {
		s.coordinator.EXPECT().Initiate(gomock.Any(), testTenant, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ id.TenantID, in coordinator.AuthorizeInput) (*models.Redirect, error) {
				s.Equal(console.String(), in.ClientID)
				s.Equal("openid profile", in.Scope)
				s.Equal("S256", in.CodeChallengeMethod)
				return &models.Redirect{State: models.StateAwaitingLogin, Location: testLogin + "?login_challenge=ch"}, nil
			})

		q := url.Values{
			"client_id":             {console.String()},
			"response_type":         {"code"},
			"scope":                 {"openid profile"},
			"redirect_uri":          {testRedirect},
			"code_challenge":        {"abc"},
			"code_challenge_method": {"S256"},
		}
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/acme/authorize?"+q.Encode()))
		s.Equal(http.StatusFound, rr.Code)
		s.Equal(testLogin+"?login_challenge=ch", rr.Header().Get("Location"))
	})

	s.Run("redirect errors go back to the client", func() {
		s.coordinator.EXPECT().Initiate(gomock.Any(), testTenant, gomock.Any()).
			Return(nil, models.NewRedirectError(models.ErrInvalidScope, "", testRedirect, "xyz"))

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/acme/authorize?client_id=console"))
		s.Equal(http.StatusFound, rr.Code)
		loc, err := url.Parse(rr.Header().Get("Location"))
		s.Require().NoError(err)
		s.Equal("app.acme.test", loc.Host)
		s.Equal("invalid_scope", loc.Query().Get("error"))
		s.Equal("xyz", loc.Query().Get("state"))
	})

	s.Run("errors before redirect_uri is trusted are rendered", func() {
		s.coordinator.EXPECT().Initiate(gomock.Any(), testTenant, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidRequest, "redirect_uri is not registered for this client"))

		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/acme/authorize?client_id=console"))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "invalid_request")
		s.Empty(rr.Header().Get("Location"))
	})
}

func (s *HandlerSuite) TestAcceptLogin() {
	stored := models.Identity{
		UserID:      testUser,
		AuthMethods: []models.AuthMethod{models.AuthMethodPassword},
	}

	s.Run("refresh token identifies the user with its stored auth methods", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-1").Return(stored, nil)
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "ch", stored).
			Return(&models.Redirect{State: models.StateCodeIssued, Location: testRedirect + "?code=c1"}, nil)

		rr := s.do(testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/login/accept", url.Values{
			"login_challenge": {"ch"},
			"refresh_token":   {"rt-1"},
			"auth_methods":    {"pwd hwk"},
		}))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[redirectResponse](s.T(), rr)
		s.Equal(testRedirect+"?code=c1", resp.RedirectURI)
	})

	s.Run("sso token takes precedence over the refresh token", func() {
		shared := stored
		shared.SSOToken = "sso-1"
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "sso-1", "rt-1").Return(shared, nil)
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "ch", shared).
			Return(&models.Redirect{State: models.StateCodeIssued, Location: testRedirect + "?code=c1"}, nil)

		rr := s.do(s.jsonRequest("/acme/login/accept", loginRequest{
			LoginChallenge: "ch",
			SSOToken:       "sso-1",
			RefreshToken:   "rt-1",
		}))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("sso cookie is used when the body has no session token", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "sso-cookie", "rt-cookie").Return(stored, nil)
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "ch", stored).
			Return(&models.Redirect{State: models.StateCodeIssued, Location: testRedirect + "?code=c1"}, nil)

		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/login/accept", url.Values{"login_challenge": {"ch"}})
		req.AddCookie(&http.Cookie{Name: cookieSSOToken, Value: "sso-cookie"})
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "rt-cookie"})
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("an expired sso token is unauthorized", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "sso-old", "").
			Return(models.Identity{}, dErrors.New(dErrors.CodeUnauthorized, "sso token is invalid or expired"))

		rr := s.do(s.jsonRequest("/acme/login/accept", loginRequest{LoginChallenge: "ch", SSOToken: "sso-old"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("admin token vouches for a user id", func() {
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "ch", models.Identity{
			UserID:      testUser,
			IsNewUser:   true,
			AuthMethods: []models.AuthMethod{models.AuthMethodPassword, models.AuthMethodOTP},
		}).Return(&models.Redirect{State: models.StateAwaitingConsent, Location: "https://consent.acme.test?consent_challenge=cc"}, nil)

		req := s.jsonRequest("/acme/login/accept", loginRequest{
			LoginChallenge: "ch",
			UserID:         testUser.String(),
			AuthMethods:    []string{"pwd", "otp"},
			IsNewUser:      true,
		})
		req.Header.Set(admin.HeaderAdminToken, testAdmin)
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("an unvouched user id is rejected", func() {
		req := s.jsonRequest("/acme/login/accept", loginRequest{LoginChallenge: "ch", UserID: testUser.String()})
		req.Header.Set(admin.HeaderAdminToken, "wrong")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("unknown auth methods are rejected", func() {
		req := s.jsonRequest("/acme/login/accept", loginRequest{LoginChallenge: "ch", UserID: testUser.String(), AuthMethods: []string{"magic"}})
		req.Header.Set(admin.HeaderAdminToken, testAdmin)
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidRequest))
	})

	s.Run("redirect errors are returned as the next location", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-1").Return(stored, nil)
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "ch", gomock.Any()).
			Return(nil, models.NewRedirectError(models.ErrUnauthorizedClient, "", testRedirect, ""))

		rr := s.do(testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/login/accept", url.Values{
			"login_challenge": {"ch"},
			"refresh_token":   {"rt-1"},
		}))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[redirectResponse](s.T(), rr)
		s.Contains(resp.RedirectURI, "error=unauthorized_client")
	})

	s.Run("expired challenge", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-1").Return(stored, nil)
		s.coordinator.EXPECT().AcceptLogin(gomock.Any(), testTenant, "gone", gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidState, "login challenge is invalid or expired"))

		rr := s.do(testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/login/accept", url.Values{
			"login_challenge": {"gone"},
			"refresh_token":   {"rt-1"},
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidState))
	})
}

func (s *HandlerSuite) TestConsent() {
	s.Run("accept reads the refresh token cookie", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-1").Return(models.Identity{UserID: testUser}, nil)
		s.coordinator.EXPECT().AcceptConsent(gomock.Any(), testTenant, "cc", testUser, []string{"openid"}).
			Return(&models.Redirect{State: models.StateCodeIssued, Location: testRedirect + "?code=c1"}, nil)

		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/consent/accept", url.Values{
			"consent_challenge": {"cc"},
			"consented_scopes":  {"openid"},
		})
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "rt-1"})
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
		s.Equal(testRedirect+"?code=c1", testutil.UnmarshalResponse[redirectResponse](s.T(), rr).RedirectURI)
	})

	s.Run("reject", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-1").Return(models.Identity{UserID: testUser}, nil)
		s.coordinator.EXPECT().RejectConsent(gomock.Any(), testTenant, "cc", testUser).
			Return(&models.Redirect{State: models.StateDenied, Location: testRedirect + "?error=access_denied"}, nil)

		rr := s.do(s.jsonRequest("/acme/consent/reject", consentRequest{ConsentChallenge: "cc", RefreshToken: "rt-1"}))
		s.Equal(http.StatusOK, rr.Code)
		s.Contains(testutil.UnmarshalResponse[redirectResponse](s.T(), rr).RedirectURI, "access_denied")
	})

	s.Run("another user is sent back to the client denied", func() {
		s.issuer.EXPECT().ValidateSession(gomock.Any(), testTenant, "", "rt-2").Return(models.Identity{UserID: "user-2"}, nil)
		s.coordinator.EXPECT().AcceptConsent(gomock.Any(), testTenant, "cc", id.UserID("user-2"), gomock.Any()).
			Return(nil, models.NewRedirectError(models.ErrAccessDenied, "user does not match the consent session", testRedirect, "xyz"))

		rr := s.do(s.jsonRequest("/acme/consent/accept", consentRequest{ConsentChallenge: "cc", RefreshToken: "rt-2"}))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[redirectResponse](s.T(), rr)
		s.Contains(resp.RedirectURI, "error=access_denied")
		s.Contains(resp.RedirectURI, "state=xyz")
	})
}

func (s *HandlerSuite) TestTokenClientAuthentication() {
	s.Run("missing grant_type", func() {
		rr := s.do(s.tokenRequest(url.Values{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidRequest)
	})

	s.Run("unsupported grant_type", func() {
		rr := s.do(s.tokenRequest(url.Values{"grant_type": {"password"}}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthUnsupportedGrantType)
	})

	s.Run("no client credentials", func() {
		rr := s.do(s.tokenRequest(url.Values{"grant_type": {"authorization_code"}}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidClient)
		s.Contains(rr.Header().Get("WWW-Authenticate"), "Basic")
	})

	s.Run("basic and form together", func() {
		req := s.tokenRequest(url.Values{"grant_type": {"authorization_code"}, "client_id": {console.String()}})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidRequest)
	})

	s.Run("half a form pair", func() {
		rr := s.do(s.tokenRequest(url.Values{"grant_type": {"authorization_code"}, "client_id": {console.String()}}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidRequest)
	})

	s.Run("wrong secret", func() {
		req := s.tokenRequest(url.Values{"grant_type": {"authorization_code"}})
		req.SetBasicAuth(console.String(), "nope")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidClient)
	})

	s.Run("unknown client", func() {
		rr := s.do(s.tokenRequest(url.Values{
			"grant_type":    {"client_credentials"},
			"client_id":     {"ghost"},
			"client_secret": {"x"},
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidClient)
	})

	s.Run("grant not allowed for the client", func() {
		req := s.tokenRequest(url.Values{"grant_type": {"client_credentials"}})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthUnauthorizedClient)
	})
}

func (s *HandlerSuite) TestTokenGrants() {
	set := &models.TokenSet{
		AccessToken:      "at",
		TokenType:        models.TokenTypeBearer,
		ExpiresIn:        900,
		RefreshToken:     "rt-2",
		IDToken:          "idt",
		SSOToken:         "sso",
		Scope:            "openid",
		RefreshExpiresIn: 3600,
		SSOExpiresIn:     3600,
	}

	s.Run("authorization_code mints tokens and sets cookies for first-party clients", func() {
		grant := &models.Grant{TenantID: testTenant, ClientID: console, Identity: models.Identity{UserID: testUser}, Scopes: []string{"openid"}}
		s.coordinator.EXPECT().ExchangeCode(gomock.Any(), testTenant, coordinator.ExchangeInput{
			Code:         "c1",
			ClientID:     console,
			RedirectURI:  testRedirect,
			CodeVerifier: "verifier",
		}).Return(grant, nil)
		s.issuer.EXPECT().Mint(gomock.Any(), grant, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ *models.Grant, meta models.DeviceMetadata) (*models.TokenSet, error) {
				s.Equal("web", meta.Source)
				s.Equal("192.0.2.1", meta.IP)
				return set, nil
			})

		req := s.tokenRequest(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {"c1"},
			"redirect_uri":  {testRedirect},
			"code_verifier": {"verifier"},
		})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)

		s.Equal(http.StatusOK, rr.Code)
		s.Equal("no-store", rr.Header().Get("Cache-Control"))
		body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("at", (*body)["access_token"])
		s.Equal("Bearer", (*body)["token_type"])
		s.Equal("sso", (*body)["sso_token"])
		s.NotContains(*body, "SSOExpiresIn")

		sso := testutil.Cookie(rr, cookieSSOToken)
		s.Require().NotNil(sso)
		s.Equal("sso", sso.Value)
		s.True(sso.HttpOnly)
		s.True(sso.Secure)
		s.Equal(3600, sso.MaxAge)
		s.NotNil(testutil.Cookie(rr, cookieRefreshToken))
	})

	s.Run("a spent code is invalid_grant", func() {
		s.coordinator.EXPECT().ExchangeCode(gomock.Any(), testTenant, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeInvalidCode, "authorization code is invalid or expired"))

		rr := s.do(s.tokenRequest(url.Values{
			"grant_type":    {"authorization_code"},
			"code":          {"c1"},
			"client_id":     {console.String()},
			"client_secret": {"console-secret"},
		}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidGrant)
	})

	s.Run("refresh_token falls back to the cookie", func() {
		s.issuer.EXPECT().Rotate(gomock.Any(), testTenant, console, "rt-1", "openid").Return(set, nil)

		req := s.tokenRequest(url.Values{"grant_type": {"refresh_token"}, "scope": {"openid"}})
		req.SetBasicAuth(console.String(), "console-secret")
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "rt-1"})
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
		s.Equal("rt-2", testutil.Cookie(rr, cookieRefreshToken).Value)
	})

	s.Run("an unauthorized refresh clears the cookies", func() {
		s.issuer.EXPECT().Rotate(gomock.Any(), testTenant, console, "rt-1", "").
			Return(nil, dErrors.New(dErrors.CodeUnauthorized, "refresh token was already used"))

		req := s.tokenRequest(url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"rt-1"}})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidGrant)
		for _, name := range []string{cookieAccessToken, cookieRefreshToken, cookieSSOToken} {
			c := testutil.Cookie(rr, name)
			s.Require().NotNil(c, name)
			s.Empty(c.Value)
			s.Negative(c.MaxAge)
		}
	})

	s.Run("a widened scope is invalid_scope", func() {
		s.issuer.EXPECT().Rotate(gomock.Any(), testTenant, console, "rt-1", "openid email").
			Return(nil, dErrors.New(dErrors.CodeInvalidScope, "requested scope exceeds the original grant"))

		req := s.tokenRequest(url.Values{"grant_type": {"refresh_token"}, "refresh_token": {"rt-1"}, "scope": {"openid email"}})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidScope)
		s.Nil(testutil.Cookie(rr, cookieRefreshToken))
	})

	s.Run("client_credentials sets no cookies", func() {
		s.issuer.EXPECT().ClientCredentials(gomock.Any(), testTenant, reporting, "reports:read").
			Return(&models.TokenSet{AccessToken: "at", TokenType: models.TokenTypeBearer, ExpiresIn: 900}, nil)

		req := s.tokenRequest(url.Values{"grant_type": {"client_credentials"}, "scope": {"reports:read"}})
		req.SetBasicAuth(reporting.String(), "reporting-secret")
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
		s.Empty(rr.Result().Cookies())
	})

	s.Run("internal failures hide their description", func() {
		s.issuer.EXPECT().ClientCredentials(gomock.Any(), testTenant, reporting, "").
			Return(nil, dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to sign tokens"))

		req := s.tokenRequest(url.Values{"grant_type": {"client_credentials"}})
		req.SetBasicAuth(reporting.String(), "reporting-secret")
		rr := s.do(req)
		s.Equal(http.StatusInternalServerError, rr.Code)
		body := testutil.UnmarshalErrorResponse(s.T(), rr)
		s.Equal(oauthServerError, body["error"])
		s.Empty(body["error_description"])
	})
}

func (s *HandlerSuite) TestRevoke() {
	s.Run("revokes only for the authenticated client", func() {
		s.issuer.EXPECT().Revoke(gomock.Any(), models.RevocationTarget{
			Kind:     models.RevokeToken,
			TenantID: testTenant,
			Token:    "rt-1",
			ClientID: console,
		}).Return(nil)

		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/revoke", url.Values{"token": {"rt-1"}})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)
		s.Empty(rr.Body.String())
	})

	s.Run("token is required", func() {
		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/revoke", url.Values{})
		req.SetBasicAuth(console.String(), "console-secret")
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, oauthInvalidRequest)
	})

	s.Run("client must authenticate", func() {
		rr := s.do(testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/revoke", url.Values{"token": {"rt-1"}}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidClient)
	})
}

func (s *HandlerSuite) TestLogout() {
	s.Run("single session", func() {
		s.issuer.EXPECT().Revoke(gomock.Any(), models.RevocationTarget{
			Kind:     models.RevokeToken,
			TenantID: testTenant,
			Token:    "rt-1",
		}).Return(nil)

		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/logout", url.Values{})
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "rt-1"})
		rr := s.do(req)
		s.Equal(http.StatusNoContent, rr.Code)
		s.Negative(testutil.Cookie(rr, cookieRefreshToken).MaxAge)
	})

	s.Run("everywhere revokes the user", func() {
		s.issuer.EXPECT().ValidateRefreshToken(gomock.Any(), testTenant, "rt-1").Return(testUser, nil)
		s.issuer.EXPECT().Revoke(gomock.Any(), models.RevocationTarget{
			Kind:     models.RevokeUser,
			TenantID: testTenant,
			UserID:   testUser,
		}).Return(nil)

		rr := s.do(s.jsonRequest("/acme/logout", logoutRequest{RefreshToken: "rt-1", Universal: true}))
		s.Equal(http.StatusNoContent, rr.Code)
	})

	s.Run("body and cookie together", func() {
		req := testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/logout", url.Values{"refresh_token": {"rt-1"}})
		req.AddCookie(&http.Cookie{Name: cookieRefreshToken, Value: "rt-1"})
		rr := s.do(req)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidRequest))
	})

	s.Run("neither body nor cookie", func() {
		rr := s.do(testutil.NewFormRequest(s.T(), http.MethodPost, "/acme/logout", url.Values{}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidRequest))
	})
}

func (s *HandlerSuite) TestAdminLogout() {
	s.Run("requires the admin token", func() {
		rr := s.do(s.jsonRequest("/acme/admin/logout", adminLogoutRequest{Kind: "tenant"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, string(dErrors.CodeUnauthorized))
	})

	s.Run("revokes a client", func() {
		s.issuer.EXPECT().Revoke(gomock.Any(), models.RevocationTarget{
			Kind:     models.RevokeClient,
			TenantID: testTenant,
			ClientID: console,
		}).Return(nil)

		req := s.jsonRequest("/acme/admin/logout", adminLogoutRequest{Kind: "client", ClientID: console.String()})
		req.Header.Set(admin.HeaderAdminToken, testAdmin)
		s.Equal(http.StatusNoContent, s.do(req).Code)
	})

	s.Run("rejects single-token kinds", func() {
		req := s.jsonRequest("/acme/admin/logout", adminLogoutRequest{Kind: "token"})
		req.Header.Set(admin.HeaderAdminToken, testAdmin)
		testutil.AssertStatusAndError(s.T(), s.do(req), http.StatusBadRequest, string(dErrors.CodeInvalidRequest))
	})
}

func (s *HandlerSuite) TestDiscovery() {
	s.Run("jwks", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/acme/.well-known/jwks.json"))
		s.Equal(http.StatusOK, rr.Code)
		s.Equal(jwksCacheControl, rr.Header().Get("Cache-Control"))

		var body struct {
			Keys []struct {
				KeyID string `json:"kid"`
				Alg   string `json:"alg"`
				D     string `json:"d"`
			} `json:"keys"`
		}
		s.Require().NoError(json.Unmarshal(rr.Body.Bytes(), &body))
		s.Require().Len(body.Keys, 1)
		s.Equal(s.signer.KeyID(), body.Keys[0].KeyID)
		s.Equal("ES256", body.Keys[0].Alg)
		s.Empty(body.Keys[0].D)
	})

	s.Run("openid configuration", func() {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/acme/.well-known/openid-configuration")
		req.Host = "id.acme.test"
		req.Header.Set("X-Forwarded-Proto", "https")
		rr := s.do(req)
		s.Equal(http.StatusOK, rr.Code)

		doc := testutil.UnmarshalResponse[discoveryDocument](s.T(), rr)
		s.Equal(testIssuer, doc.Issuer)
		s.Equal("https://id.acme.test/acme/token", doc.TokenEndpoint)
		s.Equal("https://id.acme.test/acme/.well-known/jwks.json", doc.JWKSURI)
		s.Equal([]string{"ES256"}, doc.IDTokenSigningAlgValuesSupported)
	})

	s.Run("unknown tenant", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/globex/.well-known/openid-configuration"))
		s.Equal(http.StatusNotFound, rr.Code)
	})
}

func (s *HandlerSuite) accessToken(claims *jwttoken.Claims) string {
	raw, err := s.signer.Sign(claims, "at+jwt")
	s.Require().NoError(err)
	return raw
}

func (s *HandlerSuite) claims(subject string, rftID string) *jwttoken.Claims {
	now := time.Now()
	return &jwttoken.Claims{
		TenantID:       testTenant.String(),
		ClientID:       console.String(),
		Scope:          "openid",
		AMR:            []string{"pwd"},
		RefreshTokenID: rftID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    testIssuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{console.String()},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(5 * time.Minute)),
		},
	}
}

func (s *HandlerSuite) TestUserInfo() {
	get := func(token string) *http.Request {
		req := testutil.NewRequest(s.T(), http.MethodGet, "/acme/userinfo")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return req
	}

	s.Run("describes the user", func() {
		s.issuer.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, meta models.TokenMeta) (bool, error) {
				s.Equal(testUser, meta.UserID)
				s.Equal(console, meta.ClientID)
				s.False(meta.IssuedAt.IsZero())
				return false, nil
			})

		rr := s.do(get(s.accessToken(s.claims(testUser.String(), "rft"))))
		s.Equal(http.StatusOK, rr.Code)
		info := testutil.UnmarshalResponse[userInfoResponse](s.T(), rr)
		s.Equal(testUser.String(), info.Subject)
		s.Equal([]string{"pwd"}, info.AMR)
	})

	s.Run("revoked token", func() {
		s.issuer.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(true, nil)
		rr := s.do(get(s.accessToken(s.claims(testUser.String(), "rft"))))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidToken)
	})

	s.Run("client token has no user", func() {
		s.issuer.EXPECT().IsRevoked(gomock.Any(), gomock.Any()).Return(false, nil)
		rr := s.do(get(s.accessToken(s.claims(console.String(), ""))))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidToken)
	})

	s.Run("token of another tenant", func() {
		c := s.claims(testUser.String(), "rft")
		c.TenantID = "globex"
		rr := s.do(get(s.accessToken(c)))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidToken)
	})

	s.Run("missing token", func() {
		rr := s.do(get(""))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, oauthInvalidToken)
		s.Contains(rr.Header().Get("WWW-Authenticate"), "Bearer")
	})
}

func (s *HandlerSuite) TestThrottle() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := New(s.coordinator, s.issuer, nil, nil, nil, s.signer, s.signer.Keys(),
		WithLogger(logger),
		WithThrottle(ratelimit.Middleware(ratelimit.NewInMemory(nil), "credentials",
			ratelimit.Limit{Requests: 1, Window: time.Minute}, logger)),
	)
	router := NewRouter(h, RouterConfig{})

	// Parsing fails before any collaborator is touched.
	rr := testutil.DoRequest(router, s.tokenRequest(url.Values{}))
	s.Equal(http.StatusBadRequest, rr.Code)

	rr = testutil.DoRequest(router, s.tokenRequest(url.Values{}))
	s.Equal(http.StatusTooManyRequests, rr.Code)
	s.NotEmpty(rr.Header().Get("Retry-After"))

	rr = testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/acme/.well-known/jwks.json"))
	s.Equal(http.StatusOK, rr.Code)
}

func (s *HandlerSuite) TestHealth() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	s.Equal(http.StatusOK, rr.Code)
	s.True(strings.Contains(rr.Body.String(), `"redis":"ok"`))

	router := NewRouter(New(nil, nil, nil, nil, nil, nil, nil), RouterConfig{
		HealthChecks: map[string]HealthCheck{
			"db": func(context.Context) error { return errors.New("connection refused") },
		},
	})
	rr = testutil.DoRequest(router, testutil.NewRequest(s.T(), http.MethodGet, "/health"))
	s.Equal(http.StatusServiceUnavailable, rr.Code)
	s.Contains(rr.Body.String(), "connection refused")
}
