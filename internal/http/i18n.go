package http

import (
	"context"
	"net/http"
	"strings"

	"golang.org/x/text/language"
)

const languageContextKey contextKey = "language"

var (
	supportedLanguages = []language.Tag{language.Japanese, language.English}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

// resolveLanguage picks the response language from Accept-Language. Japanese
// is used when the header is absent or matches nothing.
func resolveLanguage(r *http.Request) language.Tag {
	if r == nil {
		return language.Japanese
	}
	accept := strings.TrimSpace(r.Header.Get("Accept-Language"))
	if accept == "" {
		return language.Japanese
	}
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return language.Japanese
	}
	_, index, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return language.Japanese
	}
	return supportedLanguages[index]
}

// NegotiateLanguage stores the language negotiated for the request in its context.
func NegotiateLanguage(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), languageContextKey, resolveLanguage(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func languageFromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageContextKey).(language.Tag); ok {
		return tag
	}
	return language.Japanese
}

type localized struct {
	ja string
	en string
}

func (l localized) in(tag language.Tag) string {
	if tag == language.English {
		return l.en
	}
	return l.ja
}

var statusMessages = map[int]localized{
	http.StatusBadRequest:          {"リクエスト内容が正しくありません。", "The request is malformed."},
	http.StatusUnauthorized:        {"認証が必要です。", "Authentication is required."},
	http.StatusForbidden:           {"この操作を実行する権限がありません。", "You are not allowed to perform this operation."},
	http.StatusNotFound:            {"指定されたリソースが見つかりません。", "The requested resource was not found."},
	http.StatusUnprocessableEntity: {"入力内容に誤りがあります。", "The submitted values are invalid."},
	http.StatusServiceUnavailable:  {"サービスを利用できません。", "The service is unavailable."},
	http.StatusInternalServerError: {"サーバー内部でエラーが発生しました。", "An internal server error occurred."},
}

var validationMessages = map[string]localized{
	"schedule id is required":               {"スケジュール ID は必須です。", "A schedule id is required."},
	"availability must be 0, 1 or 2":        {"出欠は 0、1、2 のいずれかで指定してください。", "Availability must be 0, 1 or 2."},
	"candidate does not belong to schedule": {"候補日程がスケジュールに含まれていません。", "The candidate does not belong to the schedule."},
	"related records are missing":           {"関連するデータが存在しません。", "Related records are missing."},
	"value violates a constraint":           {"値が制約に違反しています。", "The value violates a constraint."},
	"username is required":                  {"ユーザー名は必須です。", "A username is required."},
	"user id must not be negative":          {"ユーザー ID は 0 以上で指定してください。", "The user id must not be negative."},
}

func localizedStatusMessage(ctx context.Context, status int) string {
	msg, ok := statusMessages[status]
	if !ok {
		msg = statusMessages[http.StatusInternalServerError]
	}
	return msg.in(languageFromContext(ctx))
}

func translateValidationMessage(ctx context.Context, message string) string {
	if msg, ok := validationMessages[message]; ok {
		return msg.in(languageFromContext(ctx))
	}
	return message
}
