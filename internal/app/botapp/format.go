package botapp

import (
	"fmt"
	"strings"

	"github.com/probab1ly/project-tgbotcontest/internal/domain/model"
	profilesvc "github.com/probab1ly/project-tgbotcontest/internal/services/profiles"
	winnersvc "github.com/probab1ly/project-tgbotcontest/internal/services/winner"
)

// formatCandidateCaption hides the owner: rating is blind.
func formatCandidateCaption(profile model.Profile) string {
	return fmt.Sprintf("%s\n\nКатегория: %s\nОцените анкету:", profile.Description, profile.Category)
}

func formatMyProfileCaption(card profilesvc.Card) string {
	lines := []string{
		card.Profile.Description,
		"",
		"Категория: " + card.Profile.Category,
		statusLine(card.Profile.Approved),
	}
	if card.Summary.Count > 0 {
		lines = append(lines, fmt.Sprintf("Оценок: %d, средняя: %.2f", card.Summary.Count, card.Summary.Average))
	} else {
		lines = append(lines, "Оценок пока нет")
	}
	if comments := formatComments(card.Ratings); len(comments) > 0 {
		lines = append(lines, "", "Отзывы:")
		lines = append(lines, comments...)
	}
	lines = append(lines, fmt.Sprintf("До снятия с конкурса: %d дн.", card.DaysLeft))
	return strings.Join(lines, "\n")
}

const maxCardComments = 5

// formatComments keeps the newest commented ratings, raters anonymous.
func formatComments(ratings []model.Rating) []string {
	lines := make([]string, 0, maxCardComments)
	for i := len(ratings) - 1; i >= 0 && len(lines) < maxCardComments; i-- {
		rating := ratings[i]
		if rating.Comment == nil {
			continue
		}
		comment := strings.TrimSpace(*rating.Comment)
		if comment == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d/5: %s", rating.Score, comment))
	}
	return lines
}

func formatWinnerCaption(profile model.Profile, result winnersvc.Result) string {
	lines := []string{
		"Текущий лидер конкурса:",
		"",
		profile.Description,
		"",
		"Категория: " + profile.Category,
		fmt.Sprintf("Средняя оценка: %.2f (%d оценок)", result.Average, result.Count),
	}
	if result.Fallback {
		lines = append(lines, "Оценок пока мало, лидер предварительный.")
	}
	return strings.Join(lines, "\n")
}

func formatModerationCaption(profile model.Profile, username string) string {
	owner := "—"
	if strings.TrimSpace(username) != "" {
		owner = "@" + strings.TrimSpace(username)
	}
	return fmt.Sprintf("Анкета #%d на модерацию\nАвтор: %s\nКатегория: %s\n\n%s",
		profile.ID, owner, profile.Category, profile.Description)
}

func statusLine(approved bool) string {
	if approved {
		return "Статус: одобрена"
	}
	return "Статус: на модерации"
}
