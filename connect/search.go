package connect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"

	"github.com/oar-cd/connectctl/domain"
)

// SearchPageSize is the number of apps requested per search page.
const SearchPageSize = 100

// AppMapper transforms each app found by RetrieveMatchingApps. Returning
// false drops the app from the result.
type AppMapper[T any] interface {
	Map(ctx context.Context, client *Client, app domain.App) (T, bool, error)
}

// AppMapperFunc adapts a function to AppMapper.
type AppMapperFunc[T any] func(ctx context.Context, client *Client, app domain.App) (T, bool, error)

func (f AppMapperFunc[T]) Map(ctx context.Context, client *Client, app domain.App) (T, bool, error) {
	return f(ctx, client, app)
}

// Identity keeps every app unchanged.
var Identity AppMapper[domain.App] = AppMapperFunc[domain.App](
	func(_ context.Context, _ *Client, app domain.App) (domain.App, bool, error) {
		return app, true, nil
	},
)

// RetrieveMatchingApps walks the paged application search and returns up
// to limit mapped apps (all of them when limit is 0), in server order.
func RetrieveMatchingApps[T any](
	ctx context.Context,
	client *Client,
	filters url.Values,
	limit int,
	mapper AppMapper[T],
) ([]T, error) {
	if mapper == nil {
		return nil, errors.New("app mapper is required")
	}

	query := url.Values{}
	for k, v := range filters {
		query[k] = slices.Clone(v)
	}
	count := SearchPageSize
	if limit > 0 {
		count = min(limit, SearchPageSize)
	}
	query.Set("count", strconv.Itoa(count))

	var result []T
	totalReturned := 0
	maximum := limit

	for {
		page, err := client.SearchApps(ctx, query)
		if err != nil {
			return nil, err
		}

		if maximum <= 0 {
			maximum = page.Total
		} else {
			maximum = min(maximum, page.Total)
		}

		apps := page.Applications
		// Drop whatever overshoots the bound.
		if keep := maximum - totalReturned; len(apps) > keep {
			apps = apps[:max(keep, 0)]
		}
		totalReturned += len(apps)

		for _, app := range apps {
			mapped, ok, err := mapper.Map(ctx, client, app)
			if err != nil {
				return nil, err
			}
			if ok {
				result = append(result, mapped)
			}
		}

		if totalReturned >= maximum || len(apps) == 0 {
			break
		}

		query = url.Values{
			"start": {strconv.Itoa(totalReturned)},
			"count": {strconv.Itoa(SearchPageSize)},
			"cont":  {continuationToken(page.Continuation)},
		}
	}

	slog.Debug("App search completed",
		"filters", filters.Encode(),
		"limit", limit,
		"returned", totalReturned,
		"kept", len(result))

	return result, nil
}

func continuationToken(v any) string {
	switch c := v.(type) {
	case nil:
		return ""
	case string:
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}

// FindUniqueName returns name, or name followed by the smallest positive
// integer that no existing app uses.
func FindUniqueName(ctx context.Context, client *Client, name string) (string, error) {
	names, err := RetrieveMatchingApps[string](ctx, client, url.Values{"search": {name}}, 0,
		AppMapperFunc[string](func(_ context.Context, _ *Client, app domain.App) (string, bool, error) {
			return app.Name, true, nil
		}),
	)
	if err != nil {
		return "", err
	}

	if !slices.Contains(names, name) {
		return name, nil
	}

	suffix := 1
	candidate := name + strconv.Itoa(suffix)
	for slices.Contains(names, candidate) {
		suffix++
		candidate = name + strconv.Itoa(suffix)
	}
	slog.Debug("Deployment name already taken, using suffix", "name", name, "unique_name", candidate)
	return candidate, nil
}

// overrideModes are the modes a title search may offer for overwriting.
var overrideModes = []domain.AppMode{domain.AppModeStatic, domain.AppModeJupyterNotebook}

func summarize(app domain.App, cfg *domain.AppConfig) domain.AppSummary {
	return domain.AppSummary{
		ID:        app.ID,
		Name:      app.Name,
		Title:     app.Title,
		AppMode:   app.Mode().Name(),
		URL:       app.URL,
		ConfigURL: cfg.ConfigURL,
	}
}

type overrideMapper struct{}

func (overrideMapper) Map(ctx context.Context, client *Client, app domain.App) (domain.AppSummary, bool, error) {
	if !slices.Contains(overrideModes, app.Mode()) {
		return domain.AppSummary{}, false, nil
	}
	cfg, err := client.GetAppConfig(ctx, app.ID)
	if err != nil {
		return domain.AppSummary{}, false, err
	}
	return summarize(app, cfg), true, nil
}

// OverrideTitleSearch lists static and notebook apps whose title matches
// title. When appID is set and not among them, that app is looked up on its
// own and added if its mode qualifies; failing to find it is not an error.
func OverrideTitleSearch(
	ctx context.Context,
	client *Client,
	appID int64,
	title string,
) ([]domain.AppSummary, error) {
	filters := url.Values{
		"filter": {"min_role:editor"},
		"search": {title},
	}
	apps, err := RetrieveMatchingApps[domain.AppSummary](ctx, client, filters, 5, overrideMapper{})
	if err != nil {
		return nil, err
	}

	if appID == 0 {
		return apps, nil
	}
	if slices.ContainsFunc(apps, func(a domain.AppSummary) bool { return a.ID == appID }) {
		return apps, nil
	}

	app, err := client.GetApp(ctx, appID)
	if err != nil {
		slog.Debug("Error getting info for previous app, skipping", "app_id", appID, "error", err)
		return apps, nil
	}
	if !slices.Contains(overrideModes, app.Mode()) {
		return apps, nil
	}
	cfg, err := client.GetAppConfig(ctx, appID)
	if err != nil {
		slog.Debug("Error getting config for previous app, skipping", "app_id", appID, "error", err)
		return apps, nil
	}
	return append(apps, summarize(*app, cfg)), nil
}
