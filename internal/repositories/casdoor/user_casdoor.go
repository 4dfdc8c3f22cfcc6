package casdoor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/redis/go-redis/v9"

	"github.com/examforge/exam-service/internal/models"
	"github.com/examforge/exam-service/internal/repositories"
)

// CasdoorConfig holds the configuration for Casdoor connection
type CasdoorConfig struct {
	Endpoint         string
	ClientID         string
	ClientSecret     string
	Certificate      string
	OrganizationName string
	ApplicationName  string
}

type UserCasdoor struct {
	client *casdoorsdk.Client
	redis  *redis.Client
	config CasdoorConfig

	cachePrefix string
	cacheTTL    time.Duration
}

func NewUserCasdoor(config CasdoorConfig, redisClient *redis.Client) repositories.UserRepository {
	client := casdoorsdk.NewClient(
		config.Endpoint,
		config.ClientID,
		config.ClientSecret,
		config.Certificate,
		config.OrganizationName,
		config.ApplicationName,
	)

	return &UserCasdoor{
		client:      client,
		redis:       redisClient,
		config:      config,
		cachePrefix: "user:",
		cacheTTL:    15 * time.Minute,
	}
}

// ===== CACHE METHODS =====

func (u *UserCasdoor) getCacheKey(key string) string {
	return fmt.Sprintf("%s%s", u.cachePrefix, key)
}

func (u *UserCasdoor) getUserFromCache(ctx context.Context, key string) (*models.User, error) {
	if u.redis == nil {
		return nil, nil
	}

	cacheKey := u.getCacheKey(key)
	data, err := u.redis.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	var user models.User
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached user: %w", err)
	}

	return &user, nil
}

func (u *UserCasdoor) setUserCache(ctx context.Context, key string, user *models.User) {
	if u.redis == nil {
		return
	}

	data, err := json.Marshal(user)
	if err != nil {
		return
	}

	cacheKey := u.getCacheKey(key)
	u.redis.Set(ctx, cacheKey, data, u.cacheTTL)
}

// ===== CONVERSION METHODS =====

// convertCasdoorUserToModel projects a Casdoor user onto the fields this
// service needs. The roll number rides on a custom property.
func (u *UserCasdoor) convertCasdoorUserToModel(casdoorUser *casdoorsdk.User) *models.User {
	if casdoorUser == nil {
		return nil
	}

	return &models.User{
		ID:     casdoorUser.Id,
		Name:   casdoorUser.DisplayName,
		Email:  casdoorUser.Email,
		RollNo: casdoorUser.Properties["rollNo"],
		Role:   u.convertCasdoorRolesToModel(casdoorUser),
	}
}

func (u *UserCasdoor) convertCasdoorRolesToModel(casdoorUser *casdoorsdk.User) models.UserRole {
	if casdoorUser.IsAdmin {
		return models.RoleAdmin
	}

	for _, casdoorRole := range casdoorUser.Roles {
		switch strings.ToLower(casdoorRole.Name) {
		case "admin", "administrator":
			return models.RoleAdmin
		case "faculty", "teacher", "instructor":
			return models.RoleFaculty
		}
	}

	return models.RoleStudent
}

// ===== READ OPERATIONS =====

// GetByID retrieves a user by ID
func (u *UserCasdoor) GetByID(ctx context.Context, id string) (*models.User, error) {
	cacheKey := fmt.Sprintf("id:%s", id)
	if cachedUser, err := u.getUserFromCache(ctx, cacheKey); err == nil && cachedUser != nil {
		return cachedUser, nil
	}

	casdoorUser, err := u.client.GetUserByUserId(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user from Casdoor: %w", err)
	}

	if casdoorUser == nil {
		return nil, fmt.Errorf("user not found with ID %s", id)
	}

	user := u.convertCasdoorUserToModel(casdoorUser)
	u.setUserCache(ctx, cacheKey, user)

	return user, nil
}

// GetByIDs resolves profiles for a set of ids in batches. Unknown or
// unreachable ids are simply absent from the result map so that one broken
// profile never sinks a whole analytics response.
func (u *UserCasdoor) GetByIDs(ctx context.Context, ids []string) (map[string]models.User, error) {
	users := make(map[string]models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	var uncached []string
	for _, id := range ids {
		if _, seen := users[id]; seen {
			continue
		}
		if cachedUser, err := u.getUserFromCache(ctx, fmt.Sprintf("id:%s", id)); err == nil && cachedUser != nil {
			users[id] = *cachedUser
			continue
		}
		uncached = append(uncached, id)
	}

	for _, chunk := range repositories.ChunkIDs(uncached) {
		for _, id := range chunk {
			user, err := u.GetByID(ctx, id)
			if err != nil || user == nil {
				continue
			}
			users[id] = *user
		}
	}

	return users, nil
}

// GetRole retrieves a user's role
func (u *UserCasdoor) GetRole(ctx context.Context, id string) (models.UserRole, error) {
	user, err := u.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	return user.Role, nil
}
