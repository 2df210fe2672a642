package gate

import (
	"strings"
	"testing"
)

func TestValidateRejectsNonSelectStatements(t *testing.T) {
	queries := []string{
		"",
		"   \n\t ",
		"-- SELECT 1",
		"/* comment */ SELECT 1",
		"WITH t AS (SELECT 1) SELECT * FROM t",
		"EXPLAIN SELECT 1",
		"VALUES (1)",
		"  show tables",
		"(SELECT 1)",
	}
	for _, query := range queries {
		if Validate(query) {
			t.Fatalf("Validate(%q) = true, want false", query)
		}
	}
}

func TestValidateAcceptsReadOnlySelects(t *testing.T) {
	queries := []string{
		"SELECT 1",
		"select * from readings",
		"  SeLeCt id, value FROM readings WHERE value > 10 ORDER BY id  ",
		"SELECT created_at, updated_by FROM logs",
		"SELECT r.id FROM readings r JOIN sensors s ON s.id = r.sensor_id GROUP BY r.id HAVING COUNT(*) > 1",
		"SELECT * FROM (SELECT id FROM readings) AS sub",
		"SELECT id FROM readings UNION SELECT id FROM archive",
		"SELECT dropped_packets, replacement_cost, deleted_flag FROM stats",
		"SELECT 1;",
		"SELECT 'a;b' AS x",
	}
	for _, query := range queries {
		if !Validate(query) {
			t.Fatalf("Validate(%q) = false, want true", query)
		}
	}
}

func TestValidateRejectsEveryForbiddenKeywordAnywhere(t *testing.T) {
	templates := []string{
		"SELECT %s FROM readings",
		"SELECT * FROM readings WHERE note = '%s'",
		"SELECT * FROM readings -- %s",
		"SELECT * FROM (SELECT %s) AS x",
		"SELECT 1; %s TABLE readings",
		"SELECT * FROM readings /* %s */",
		"SELECT * FROM readings WHERE a=%s",
	}
	for _, keyword := range ForbiddenKeywords() {
		for _, template := range templates {
			for _, cased := range []string{keyword, strings.ToUpper(keyword)} {
				query := strings.Replace(template, "%s", cased, 1)
				if Validate(query) {
					t.Fatalf("Validate(%q) = true, want false", query)
				}
			}
		}
	}
}

func TestValidateUsesWholeWordMatching(t *testing.T) {
	for _, keyword := range ForbiddenKeywords() {
		for _, identifier := range []string{keyword + "d_at", "last_" + keyword, keyword + "s", "x" + keyword, keyword + "1"} {
			query := "SELECT " + identifier + " FROM logs"
			if !Validate(query) {
				t.Fatalf("Validate(%q) = false, want true", query)
			}
		}
	}
	if !Validate("SELECT created_at FROM logs") {
		t.Fatal("created_at must not trigger create")
	}
	for _, query := range []string{
		"SELECT ädelete FROM t",
		"SELECT dropé FROM t",
		"SELECT 数据update FROM t",
		"SELECT pragma٣ FROM t",
	} {
		if !Validate(query) {
			t.Fatalf("Validate(%q) = false, want true", query)
		}
	}
	for _, query := range []string{
		"SELECT * FROM t WHERE note = 'é drop é'",
		"SELECT delete",
		"SELECT x FROM t -- drop",
		"SELECT (drop) FROM t",
	} {
		if Validate(query) {
			t.Fatalf("Validate(%q) = true, want false", query)
		}
	}
}

func TestCheckReportsReason(t *testing.T) {
	g := New()

	verdict := g.Check("DROP TABLE readings")
	if verdict.Allowed || verdict.Reason != ReasonNotSelect {
		t.Fatalf("verdict = %#v", verdict)
	}

	verdict = g.Check("SELECT * FROM readings; DROP TABLE readings")
	if verdict.Allowed || verdict.Reason != ReasonForbiddenKeyword || verdict.Keyword != "drop" {
		t.Fatalf("verdict = %#v", verdict)
	}
	if !strings.Contains(verdict.Message(), `"drop"`) {
		t.Fatalf("Message() = %q", verdict.Message())
	}

	verdict = g.Check("")
	if verdict.Reason != ReasonEmpty {
		t.Fatalf("verdict = %#v", verdict)
	}

	verdict = g.Check("SELECT 1")
	if !verdict.Allowed || verdict.Message() != "" {
		t.Fatalf("verdict = %#v", verdict)
	}
}

func TestDefaultGateAllowsSecondStatementWithoutForbiddenKeyword(t *testing.T) {
	if !Validate("SELECT 1; SELECT 2") {
		t.Fatal("keyword-only gate should not reject a keyword-free second statement")
	}
}

func TestSingleStatementRejectsTrailingStatements(t *testing.T) {
	g := New(WithSingleStatement(true))

	rejected := []string{
		"SELECT 1; SELECT 2",
		"SELECT 1;SELECT 2",
		"SELECT 1; 'x'",
		"SELECT 1;\n\nVACUUM",
		"SELECT ';' ; SELECT 2",
	}
	for _, query := range rejected {
		verdict := g.Check(query)
		if verdict.Allowed || verdict.Reason != ReasonMultiStatement {
			t.Fatalf("Check(%q) = %#v, want multi_statement", query, verdict)
		}
	}

	accepted := []string{
		"SELECT 1;",
		"SELECT 1 ;;  ",
		"SELECT 1; -- trailing comment",
		"SELECT 1; /* trailing */",
		"SELECT 'a;b', \"c;d\", [e;f], `g;h` FROM t",
		"SELECT 'it''s; fine' FROM t",
		"SELECT 1 -- ; SELECT 2",
		"SELECT 1 /* ; SELECT 2 */",
	}
	for _, query := range accepted {
		if verdict := g.Check(query); !verdict.Allowed {
			t.Fatalf("Check(%q) = %#v, want allowed", query, verdict)
		}
	}
}

func TestForbiddenKeywordsReturnsCopy(t *testing.T) {
	keywords := ForbiddenKeywords()
	if len(keywords) != 10 {
		t.Fatalf("len(ForbiddenKeywords()) = %d", len(keywords))
	}
	keywords[0] = "mutated"
	if ForbiddenKeywords()[0] != "insert" {
		t.Fatal("ForbiddenKeywords() exposed internal slice")
	}
}
