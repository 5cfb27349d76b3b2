package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"memories/pkg/config"
	"memories/pkg/jwt"
	"memories/pkg/logger"
)

type seedUser struct {
	id   string
	name string
}

type seedPost struct {
	ID string `json:"_id"`
}

// seed drives a running post service through its public API so every store
// backend gets the same data.
func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:5000/api/v1", "base URL of the post service API")
		perUser    = flag.Int("posts", 3, "posts created per user")
		withImages = flag.Bool("images", false, "attach a cat picture from cataas.com to every other post")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	jwtService := jwt.NewService(cfg.JWTSecret)
	s := &seeder{
		baseURL:    *baseURL,
		jwtService: jwtService,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}

	if err := s.run(*perUser, *withImages); err != nil {
		log.Error("Failed to seed posts: %v", err)
		panic(err)
	}

	token, err := jwtService.GenerateToken("alice", "user")
	if err != nil {
		panic(err)
	}
	log.Info("Posts seeded successfully!")
	fmt.Printf("Development token for alice:\nBearer %s\n", token)
}

type seeder struct {
	baseURL    string
	jwtService *jwt.Service
	httpClient *http.Client
	log        *logger.Logger
}

var testUsers = []seedUser{
	{"alice", "Alice"},
	{"bob", "Bob"},
	{"charlie", "Charlie"},
}

var tagSets = [][]string{
	{"travel", "mountains"},
	{"food"},
	{"cats", "home"},
	{"travel", "beach"},
}

func (s *seeder) run(perUser int, withImages bool) error {
	var created []string

	for _, user := range testUsers {
		for i := 0; i < perUser; i++ {
			body := map[string]interface{}{
				"title":   fmt.Sprintf("Memory #%d by %s", i+1, user.name),
				"message": fmt.Sprintf("Seeded memory number %d.", i+1),
				"name":    user.name,
				"tags":    tagSets[(len(created)+i)%len(tagSets)],
			}
			if withImages && i%2 == 0 {
				image, err := s.fetchCatImage(user.name)
				if err != nil {
					s.log.Warn("Skipping image for %s: %v", user.name, err)
				} else {
					body["selectedFile"] = image
				}
			}

			var post seedPost
			if err := s.call(http.MethodPost, "/posts", user, body, &post); err != nil {
				return fmt.Errorf("failed to create post for %s: %w", user.id, err)
			}
			s.log.Info("Created post %s by %s", post.ID, user.id)
			created = append(created, post.ID)
		}
	}

	for i, postID := range created {
		liker := testUsers[(i+1)%len(testUsers)]
		if err := s.call(http.MethodPatch, "/posts/"+postID+"/likePost", liker, nil, nil); err != nil {
			s.log.Error("Failed to like post %s as %s: %v", postID, liker.id, err)
		}

		comment := map[string]string{"value": fmt.Sprintf("%s: lovely!", liker.name)}
		if err := s.call(http.MethodPost, "/posts/"+postID+"/commentPost", liker, comment, nil); err != nil {
			s.log.Error("Failed to comment on post %s as %s: %v", postID, liker.id, err)
		}
	}

	s.log.Info("Seeded %d posts with likes and comments", len(created))
	return nil
}

func (s *seeder) call(method, path string, user seedUser, body interface{}, out interface{}) error {
	token, err := s.jwtService.GenerateToken(user.id, "user")
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}

	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, s.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, msg)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchCatImage returns a cat picture as a base64 data URL.
func (s *seeder) fetchCatImage(caption string) (string, error) {
	resp, err := s.httpClient.Get("https://cataas.com/cat/says/" + caption)
	if err != nil {
		return "", fmt.Errorf("failed to fetch cat image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cataas API returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read image data: %w", err)
	}
	if len(imageData) == 0 {
		return "", fmt.Errorf("received empty image data")
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData)), nil
}
