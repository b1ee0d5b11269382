// Package i18n хранит тексты бота. Автомат оперирует ключами, перевод
// и обратное сопоставление подписей кнопок с ключами выполняются здесь.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFiles embed.FS

// Catalog переводы для нескольких языков
type Catalog struct {
	fallback string
	messages map[string]map[string]string // lang -> key -> text
	reverse  map[string]map[string]string // lang -> text -> key
}

// Load читает встроенные файлы locales/*.yaml. fallback используется,
// когда язык пользователя не поддерживается или ключа в нем нет.
func Load(fallback string) (*Catalog, error) {
	entries, err := localeFiles.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read locales: %w", err)
	}

	c := &Catalog{
		fallback: fallback,
		messages: make(map[string]map[string]string),
		reverse:  make(map[string]map[string]string),
	}
	for _, e := range entries {
		data, err := localeFiles.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", e.Name(), err)
		}
		lang := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		if err := c.Add(lang, data); err != nil {
			return nil, err
		}
	}

	if _, ok := c.messages[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %q not found", fallback)
	}
	return c, nil
}

// Add добавляет или заменяет язык из YAML с плоскими ключами
func (c *Catalog) Add(lang string, data []byte) error {
	messages := make(map[string]string)
	if err := yaml.Unmarshal(data, &messages); err != nil {
		return fmt.Errorf("failed to parse locale %s: %w", lang, err)
	}
	reverse := make(map[string]string, len(messages))
	for key, text := range messages {
		reverse[strings.TrimSpace(text)] = key
	}
	c.messages[lang] = messages
	c.reverse[lang] = reverse
	return nil
}

// Languages список поддерживаемых языков
func (c *Catalog) Languages() []string {
	langs := make([]string, 0, len(c.messages))
	for lang := range c.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Match подбирает язык каталога по коду языка Telegram ("ru", "en-US")
func (c *Catalog) Match(code string) string {
	code = strings.ToLower(code)
	if i := strings.IndexAny(code, "-_"); i >= 0 {
		code = code[:i]
	}
	if _, ok := c.messages[code]; ok {
		return code
	}
	return c.fallback
}

// Get переводит ключ. Неизвестный ключ возвращается как есть.
func (c *Catalog) Get(lang, key string) string {
	if text, ok := c.messages[lang][key]; ok {
		return text
	}
	if text, ok := c.messages[c.fallback][key]; ok {
		return text
	}
	return key
}

// Resolve находит ключ по подписи кнопки. Сначала ищет в языке пользователя,
// затем в запасном языке.
func (c *Catalog) Resolve(lang, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if key, ok := c.reverse[lang][text]; ok {
		return key, true
	}
	if key, ok := c.reverse[c.fallback][text]; ok {
		return key, true
	}
	return "", false
}

// HasKey проверяет, есть ли ключ хотя бы в одном языке
func (c *Catalog) HasKey(key string) bool {
	for _, messages := range c.messages {
		if _, ok := messages[key]; ok {
			return true
		}
	}
	return false
}
