package middleware

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"bizdesk/internal/common"

	"github.com/labstack/echo/v4"
)

// Version lifecycle states.
const (
	VersionActive     = "active"
	VersionDeprecated = "deprecated"
	VersionSunset     = "sunset"
)

const apiVersionKey = "api_version"

type APIVersion struct {
	Version    string     `json:"version"`
	Status     string     `json:"status"`
	SunsetDate *time.Time `json:"sunset_date,omitempty"`
	Message    string     `json:"message,omitempty"`
}

// VersionMiddleware tracks the API versions the server answers and
// annotates responses with their lifecycle.
type VersionMiddleware struct {
	versions       map[string]APIVersion
	defaultVersion string
}

func NewVersionMiddleware() *VersionMiddleware {
	return &VersionMiddleware{
		versions: map[string]APIVersion{
			"v1": {Version: "v1", Status: VersionActive, Message: "Current stable API version"},
		},
		defaultVersion: "v1",
	}
}

// VersionRoute creates the route group of a version with its headers applied.
func (vm *VersionMiddleware) VersionRoute(e *echo.Echo, version string) *echo.Group {
	group := e.Group("/" + version)
	group.Use(vm.VersionHeader(version))
	return group
}

func (vm *VersionMiddleware) VersionHeader(version string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-API-Version", version)
			c.Set(apiVersionKey, version)

			if ver, ok := vm.versions[version]; ok {
				if ver.Status == VersionDeprecated && ver.SunsetDate != nil {
					setDeprecation(h, *ver.SunsetDate, "This API version is deprecated")
				}
				if ver.Message != "" {
					h.Set("X-API-Message", ver.Message)
				}
			}
			return next(c)
		}
	}
}

// APIVersionResolver rejects requests for versions the server never had or
// has already sunset.
func (vm *VersionMiddleware) APIVersionResolver() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			version := versionFromPath(c.Request().URL.Path)
			if version == "" {
				c.Set(apiVersionKey, vm.defaultVersion)
				return next(c)
			}
			if ver, ok := vm.versions[version]; !ok || ver.Status == VersionSunset {
				return c.JSON(http.StatusNotFound, common.CreateErrorResponse("NOT_FOUND", "Unsupported API version",
					map[string]string{"supported_versions": strings.Join(vm.SupportedVersions(), ", ")}))
			}
			return next(c)
		}
	}
}

// Deprecate marks a single endpoint as going away on sunset.
func (vm *VersionMiddleware) Deprecate(message string, sunset time.Time) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			setDeprecation(c.Response().Header(), sunset, "This endpoint is deprecated")
			if message != "" {
				c.Response().Header().Set("X-API-Deprecation-Message", message)
			}
			return next(c)
		}
	}
}

func setDeprecation(h http.Header, sunset time.Time, what string) {
	h.Set("X-API-Deprecated", "true")
	h.Set("X-API-Sunset", sunset.Format(time.RFC3339))
	h.Set("Warning", `299 bizdesk "`+what+` and will be removed on `+sunset.Format(common.DateLayout)+`"`)
}

// versionFromPath returns "v<N>" when the path starts with such a segment.
func versionFromPath(path string) string {
	segment := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 2)[0]
	if len(segment) < 2 || segment[0] != 'v' {
		return ""
	}
	for _, r := range segment[1:] {
		if r < '0' || r > '9' {
			return ""
		}
	}
	if segment[1] == '0' {
		return ""
	}
	return segment
}

// SupportedVersions lists the versions still answered, sorted.
func (vm *VersionMiddleware) SupportedVersions() []string {
	var out []string
	for version, info := range vm.versions {
		if info.Status != VersionSunset {
			out = append(out, version)
		}
	}
	sort.Strings(out)
	return out
}

func (vm *VersionMiddleware) AddVersion(version, status, message string, sunsetDate *time.Time) {
	vm.versions[version] = APIVersion{
		Version:    version,
		Status:     status,
		SunsetDate: sunsetDate,
		Message:    message,
	}
}
