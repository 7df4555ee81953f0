package migration

import "fmt"

const (
	migrationFooterTemplateConstant = `<br><hr><i>Migrated from <a href="%s">%s</a></i>`
)

// buildMigrationFooter renders the fixed "migrated from" footer appended to
// every migrated description, back-linking the source entity.
func buildMigrationFooter(sourceURL string) string {
	return fmt.Sprintf(migrationFooterTemplateConstant, sourceURL, sourceURL)
}
