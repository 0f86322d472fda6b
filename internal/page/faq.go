// internal/page/faq.go
package page

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	faqQuestionSelector = ".care-faq-question"
	openClass           = "open"
	faqScriptID         = "care-faq-accordion"
)

// faqScript toggles the open class on a question and the answer right after
// it. Enter and space activate a focused question like a click.
const faqScript = `(function () {
  var root = document.currentScript && document.currentScript.parentElement || document;
  root.querySelectorAll(".care-faq-question").forEach(function (q) {
    function toggle() {
      var open = q.classList.toggle("open");
      q.setAttribute("aria-expanded", open ? "true" : "false");
      var answer = q.nextElementSibling;
      if (answer) answer.classList.toggle("open");
    }
    q.addEventListener("click", toggle);
    q.addEventListener("keydown", function (e) {
      if (e.key === "Enter" || e.key === " ") { e.preventDefault(); toggle(); }
    });
  });
})();`

// ActivateFAQ marks every FAQ question under root as a toggle button and
// attaches the accordion script once. It returns the number of questions.
func ActivateFAQ(root *goquery.Selection) int {
	questions := root.Find(faqQuestionSelector)
	questions.Each(func(_ int, q *goquery.Selection) {
		q.SetAttr("role", "button")
		q.SetAttr("tabindex", "0")
		q.SetAttr("aria-expanded", boolAttr(q.HasClass(openClass)))
	})
	if questions.Length() == 0 || root.Find("script#"+faqScriptID).Length() > 0 {
		return questions.Length()
	}
	root.AppendHtml(`<script id="` + faqScriptID + `">` + faqScript + `</script>`)
	return questions.Length()
}

// ToggleFAQ flips the open state of a question and of its answer, the
// element directly after it. It reports whether the question is now open.
func ToggleFAQ(question *goquery.Selection) bool {
	open := !question.HasClass(openClass)
	setClass(question, openClass, open)
	question.SetAttr("aria-expanded", boolAttr(open))

	if answer := question.Next(); answer.Length() > 0 {
		setClass(answer, openClass, !answer.HasClass(openClass))
	}
	return open
}

func setClass(s *goquery.Selection, class string, on bool) {
	if on {
		s.AddClass(class)
		return
	}
	s.RemoveClass(class)
	if strings.TrimSpace(s.AttrOr("class", "")) == "" {
		s.RemoveAttr("class")
	}
}

func boolAttr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
