package fixture

import (
	"html/template"
)

// The markup matches the default agenda.selectors configuration.
var agendaTemplate = template.Must(template.New("agenda").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<ul id="agenda-proposals">
{{- range .Proposals}}
  <li data-proposal-id="{{.ID}}" data-bookmarked="{{.Bookmarked}}">
    <span class="proposal-title">{{.Title}}</span>
    {{- if .Speaker}} <span class="proposal-speaker">{{.Speaker}}</span>{{end}}
    <form class="bookmark-form" method="post" action="/agenda/proposals/{{.ID}}/bookmark">
      <input type="hidden" name="bookmarked" value="{{not .Bookmarked}}">
      <button type="submit" class="bookmark-toggle">{{if .Bookmarked}}Remove bookmark{{else}}Bookmark{{end}}</button>
    </form>
  </li>
{{- end}}
</ul>
<script>
document.addEventListener('submit', function (ev) {
  var form = ev.target;
  if (!form.classList || !form.classList.contains('bookmark-form')) { return; }
  ev.preventDefault();
  var item = form.closest('[data-proposal-id]');
  var field = form.elements['bookmarked'];
  fetch(form.action, {
    method: 'POST',
    headers: {'Accept': 'application/json', 'Content-Type': 'application/x-www-form-urlencoded'},
    body: 'bookmarked=' + encodeURIComponent(field.value)
  }).then(function (resp) {
    if (!resp.ok) { throw new Error('bookmark update failed: ' + resp.status); }
    return resp.json();
  }).then(function (p) {
    item.setAttribute('data-bookmarked', String(p.bookmarked));
    field.value = String(!p.bookmarked);
    form.querySelector('.bookmark-toggle').textContent = p.bookmarked ? 'Remove bookmark' : 'Bookmark';
  }).catch(function (err) { console.error(err); });
});
</script>
</body>
</html>
`))
