package gateway

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/calorio/recommender/internal/domain"
)

// Default limiter settings for database access.
const (
	defaultQueriesPerSecond = 100.0
	defaultBurst            = 20
)

// MySQLConfig holds settings for the MySQL-backed gateway.
type MySQLConfig struct {
	QueriesPerSecond float64
	Burst            int
}

// MySQLGateway implements domain.DataGateway against the calorie app's MySQL
// schema. All access is read-only; writes belong to the surrounding
// application. A rate limiter caps query throughput so recommendation bursts
// cannot starve the shared database.
type MySQLGateway struct {
	db      *sql.DB
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewMySQLGateway creates a gateway over an open database handle.
func NewMySQLGateway(db *sql.DB, config MySQLConfig, logger zerolog.Logger) *MySQLGateway {
	qps := config.QueriesPerSecond
	if qps <= 0 {
		qps = defaultQueriesPerSecond
	}
	burst := config.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	return &MySQLGateway{
		db:      db,
		limiter: rate.NewLimiter(rate.Limit(qps), burst),
		logger:  logger.With().Str("component", "mysql_gateway").Logger(),
	}
}

// Open connects to MySQL with the given DSN and returns a gateway over the
// connection.
func Open(dsn string, config MySQLConfig, logger zerolog.Logger) (*MySQLGateway, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open: %w", domain.ErrGatewayUnavailable, err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	return NewMySQLGateway(db, config, logger), nil
}

// Close releases the underlying connection pool.
func (g *MySQLGateway) Close() error {
	return g.db.Close()
}

// ListFoods returns the full food catalog ordered by name ascending.
func (g *MySQLGateway) ListFoods(ctx context.Context) ([]domain.FoodItem, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrGatewayUnavailable, err)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT food_id, food_name, calories
		FROM Foods
		ORDER BY food_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list foods: %w", domain.ErrGatewayUnavailable, err)
	}
	defer rows.Close()

	var foods []domain.FoodItem
	for rows.Next() {
		var item domain.FoodItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Calories); err != nil {
			return nil, fmt.Errorf("%w: scan food: %w", domain.ErrGatewayUnavailable, err)
		}
		foods = append(foods, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list foods: %w", domain.ErrGatewayUnavailable, err)
	}

	g.logger.Debug().Int("count", len(foods)).Msg("fetched food catalog")
	return foods, nil
}

// UserFoodHistory returns the distinct food names a user has eaten, most
// recently eaten first.
func (g *MySQLGateway) UserFoodHistory(ctx context.Context, userID int64) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrGatewayUnavailable, err)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT f.food_name, MAX(m.date) AS latest_date
		FROM MealDetails md
		JOIN Meals m ON md.meal_id = m.meal_id
		JOIN Foods f ON md.food_id = f.food_id
		WHERE m.user_id = ?
		GROUP BY f.food_name
		ORDER BY latest_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: food history: %w", domain.ErrGatewayUnavailable, err)
	}
	defer rows.Close()

	var history []string
	for rows.Next() {
		var name string
		var latest time.Time
		if err := rows.Scan(&name, &latest); err != nil {
			return nil, fmt.Errorf("%w: scan food history: %w", domain.ErrGatewayUnavailable, err)
		}
		history = append(history, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: food history: %w", domain.ErrGatewayUnavailable, err)
	}
	return history, nil
}

// RemainingCalories returns the remaining budget for (user, date); ok is
// false when no record exists for that day.
func (g *MySQLGateway) RemainingCalories(ctx context.Context, userID int64, date time.Time) (float64, bool, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, false, fmt.Errorf("%w: rate limiter: %w", domain.ErrGatewayUnavailable, err)
	}

	var value float64
	err := g.db.QueryRowContext(ctx, `
		SELECT remaining_calories
		FROM DailyCalories
		WHERE user_id = ? AND date = ?`, userID, date.Format(dateLayout)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: remaining calories: %w", domain.ErrGatewayUnavailable, err)
	}
	return value, true, nil
}

// UserActivityHistory returns the distinct activity names a user has
// performed, most frequent first.
func (g *MySQLGateway) UserActivityHistory(ctx context.Context, userID int64) ([]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrGatewayUnavailable, err)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT s.sport_name, COUNT(*) AS frequency
		FROM Activity a
		JOIN ActivityDetail ad ON a.activity_id = ad.activity_id
		JOIN Sports s ON ad.sport_id = s.sport_id
		WHERE a.user_id = ?
		GROUP BY s.sport_id, s.sport_name
		ORDER BY frequency DESC, s.sport_name`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: activity history: %w", domain.ErrGatewayUnavailable, err)
	}
	defer rows.Close()

	var history []string
	for rows.Next() {
		var name string
		var frequency int
		if err := rows.Scan(&name, &frequency); err != nil {
			return nil, fmt.Errorf("%w: scan activity history: %w", domain.ErrGatewayUnavailable, err)
		}
		history = append(history, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: activity history: %w", domain.ErrGatewayUnavailable, err)
	}
	return history, nil
}

// AllUserActivityProfiles returns the activity names of every user with at
// least one recorded activity, ordered by (user_id, sport_name) so corpus
// construction downstream is deterministic.
func (g *MySQLGateway) AllUserActivityProfiles(ctx context.Context) (map[int64][]string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %w", domain.ErrGatewayUnavailable, err)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT a.user_id, s.sport_name
		FROM Activity a
		JOIN ActivityDetail ad ON a.activity_id = ad.activity_id
		JOIN Sports s ON ad.sport_id = s.sport_id
		ORDER BY a.user_id, s.sport_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: activity profiles: %w", domain.ErrGatewayUnavailable, err)
	}
	defer rows.Close()

	profiles := make(map[int64][]string)
	for rows.Next() {
		var userID int64
		var name string
		if err := rows.Scan(&userID, &name); err != nil {
			return nil, fmt.Errorf("%w: scan activity profile: %w", domain.ErrGatewayUnavailable, err)
		}
		profiles[userID] = append(profiles[userID], name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: activity profiles: %w", domain.ErrGatewayUnavailable, err)
	}

	g.logger.Debug().Int("users", len(profiles)).Msg("fetched activity profiles")
	return profiles, nil
}
