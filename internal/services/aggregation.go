package services

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/gaonpathshala/exam-portal/internal/models"
)

// LeaderboardViewSize is how many top rows the public leaderboard view keeps.
const LeaderboardViewSize = 10

// ===== RESPONSE SHAPES =====

type ExamScore struct {
	ExamID         uint      `json:"exam_id"`
	ExamTitle      string    `json:"exam_title"`
	TotalQuestions int       `json:"total_questions"`
	Correct        int       `json:"correct"`
	Wrong          int       `json:"wrong"`
	Score          int       `json:"score"`
	Percentage     float64   `json:"percentage"`
	Date           time.Time `json:"date"`
}

type ReportCard struct {
	StudentID         uint        `json:"student_id"`
	Name              string      `json:"name"`
	RegNo             string      `json:"reg_no,omitempty"`
	Phone             string      `json:"phone"`
	Email             string      `json:"email"`
	TotalExams        int         `json:"total_exams"`
	TotalQuestions    int         `json:"total_questions"`
	TotalCorrect      int         `json:"total_correct"`
	TotalWrong        int         `json:"total_wrong"`
	TotalScore        int         `json:"total_score"`
	AveragePercentage float64     `json:"average_percentage"`
	ExamDetails       []ExamScore `json:"exam_details"`
}

type LeaderboardEntry struct {
	StudentID         uint    `json:"student_id"`
	Name              string  `json:"name"`
	RegNo             string  `json:"reg_no,omitempty"`
	Phone             string  `json:"phone"`
	Email             string  `json:"email"`
	TotalExams        int     `json:"total_exams"`
	TotalQuestions    int     `json:"total_questions"`
	TotalCorrect      int     `json:"total_correct"`
	TotalWrong        int     `json:"total_wrong"`
	TotalScore        int     `json:"total_score"`
	AveragePercentage float64 `json:"average_percentage"`
	Rank              int     `json:"rank"`
}

type Leaderboard struct {
	Month       string             `json:"month"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
}

// Rank is a 1-based position; zero marshals as "NR" (not ranked).
type Rank int

func (r Rank) MarshalJSON() ([]byte, error) {
	if r <= 0 {
		return []byte(`"NR"`), nil
	}
	return []byte(strconv.Itoa(int(r))), nil
}

func (r *Rank) UnmarshalJSON(data []byte) error {
	if string(data) == `"NR"` {
		*r = 0
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*r = Rank(n)
	return nil
}

type StudentStats struct {
	Rank              Rank `json:"rank"`
	AverageScore      int  `json:"average_score"`
	ExamsAttempted    int  `json:"exams_attempted"`
	TotalPoints       int  `json:"total_points"`
	MonthlyAttendance int  `json:"monthly_attendance"`
	YearlyAttendance  int  `json:"yearly_attendance"`
	TotalCorrect      int  `json:"total_correct"`
	TotalQuestions    int  `json:"total_questions"`
}

type StudentStatsResponse struct {
	StudentID uint         `json:"student_id"`
	RegNo     string       `json:"reg_no,omitempty"`
	Stats     StudentStats `json:"stats"`
}

// ===== PURE AGGREGATIONS =====

// BestAttempts keeps the highest-scoring attempt per exam. results must be
// ordered newest first; on equal scores the earlier element (the newer
// attempt) is kept. Output preserves the order in which exams first appear.
func BestAttempts(results []*models.Result) []*models.Result {
	best := make(map[uint]int, len(results))
	var out []*models.Result
	for _, r := range results {
		i, seen := best[r.ExamID]
		if !seen {
			best[r.ExamID] = len(out)
			out = append(out, r)
			continue
		}
		if r.Score > out[i].Score {
			out[i] = r
		}
	}
	return out
}

// BuildReportCard aggregates a student's best attempts. results newest first.
func BuildReportCard(student *models.Student, results []*models.Result) ReportCard {
	card := ReportCard{
		StudentID:   student.ID,
		Name:        student.ShortName(),
		RegNo:       student.RegistrationNumber(),
		Phone:       student.Phone,
		Email:       student.Email,
		ExamDetails: []ExamScore{},
	}

	for _, r := range BestAttempts(results) {
		card.TotalExams++
		card.TotalQuestions += r.TotalQuestions
		card.TotalCorrect += r.Correct
		card.TotalWrong += r.Wrong
		card.TotalScore += r.Score
		card.ExamDetails = append(card.ExamDetails, ExamScore{
			ExamID:         r.ExamID,
			ExamTitle:      r.ExamTitle,
			TotalQuestions: r.TotalQuestions,
			Correct:        r.Correct,
			Wrong:          r.Wrong,
			Score:          r.Score,
			Percentage:     percentage(r.Score, r.TotalQuestions),
			Date:           r.CreatedAt,
		})
	}
	card.AveragePercentage = percentage(card.TotalScore, card.TotalQuestions)
	return card
}

type studentTotals struct {
	exams, questions, correct, wrong, score int
}

func totalsByStudent(results []*models.Result) map[uint]*studentTotals {
	totals := make(map[uint]*studentTotals)
	for _, r := range results {
		t, ok := totals[r.StudentID]
		if !ok {
			t = &studentTotals{}
			totals[r.StudentID] = t
		}
		t.exams++
		t.questions += r.TotalQuestions
		t.correct += r.Correct
		t.wrong += r.Wrong
		t.score += r.Score
	}
	return totals
}

// BuildLeaderboard ranks students over every attempt (no best-attempt
// filtering). Results whose student is missing from directory are skipped.
// Equal averages are ordered by student id.
func BuildLeaderboard(results []*models.Result, directory map[uint]*models.Student) []LeaderboardEntry {
	entries := []LeaderboardEntry{}
	for id, t := range totalsByStudent(results) {
		student, ok := directory[id]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			StudentID:         id,
			Name:              student.DisplayName(),
			RegNo:             student.RegistrationNumber(),
			Phone:             student.Phone,
			Email:             student.Email,
			TotalExams:        t.exams,
			TotalQuestions:    t.questions,
			TotalCorrect:      t.correct,
			TotalWrong:        t.wrong,
			TotalScore:        t.score,
			AveragePercentage: percentage(t.score, t.questions),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].AveragePercentage != entries[j].AveragePercentage {
			return entries[i].AveragePercentage > entries[j].AveragePercentage
		}
		return entries[i].StudentID < entries[j].StudentID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// SelectLeaderboardView keeps the top rows plus the caller's own row when it
// falls outside them.
func SelectLeaderboardView(entries []LeaderboardEntry, regNo string) []LeaderboardEntry {
	if len(entries) <= LeaderboardViewSize {
		return entries
	}
	view := append([]LeaderboardEntry{}, entries[:LeaderboardViewSize]...)
	if regNo == "" {
		return view
	}
	for _, e := range entries[LeaderboardViewSize:] {
		if e.RegNo == regNo {
			return append(view, e)
		}
	}
	return view
}

// ComputeStudentStats derives progress figures for one student. allResults is
// the full result table and is used for the global rank only.
func ComputeStudentStats(student *models.Student, own, allResults []*models.Result, now time.Time) StudentStats {
	var stats StudentStats
	var score int
	for _, r := range own {
		stats.ExamsAttempted++
		stats.TotalQuestions += r.TotalQuestions
		stats.TotalCorrect += r.Correct
		score += r.Score
	}
	if stats.TotalQuestions > 0 {
		stats.AverageScore = int(math.Round(float64(score) / float64(stats.TotalQuestions) * 100))
	}
	stats.TotalPoints = stats.ExamsAttempted * 10

	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	prefix := now.Format("2006-01")
	present := 0
	for _, day := range student.AttendanceDates {
		if len(day) >= 7 && day[:7] == prefix {
			present++
		}
	}
	stats.MonthlyAttendance = int(math.Round(float64(present) / float64(daysInMonth) * 100))
	stats.YearlyAttendance = int(math.Round(float64(len(student.AttendanceDates)) / 365 * 100))

	stats.Rank = globalRank(student.ID, allResults)
	return stats
}

func globalRank(studentID uint, results []*models.Result) Rank {
	type ranked struct {
		id  uint
		avg float64
	}
	var rows []ranked
	for id, t := range totalsByStudent(results) {
		avg := 0.0
		if t.questions > 0 {
			avg = float64(t.score) / float64(t.questions)
		}
		rows = append(rows, ranked{id: id, avg: avg})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].avg != rows[j].avg {
			return rows[i].avg > rows[j].avg
		}
		return rows[i].id < rows[j].id
	})
	for i, r := range rows {
		if r.id == studentID {
			return Rank(i + 1)
		}
	}
	return 0
}

func percentage(score, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(score) / float64(total) * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
