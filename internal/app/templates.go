package app

import (
	"html/template"
	"net/http"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"/><title>Kick OAuth Demo</title></head>
<body>
  <h1>Kick OAuth Demo</h1>
  <p>Configured scopes:</p>
  <pre>{{.Scopes}}</pre>
  <p><a href="/login">Log in with Kick</a></p>
  <p><a href="/live-chat">Live chat</a> &middot; <a href="/channels/search?slug=gmhikaru">Channel lookup</a></p>
</body>
</html>
`))

var liveChatTemplate = template.Must(template.New("livechat").Parse(`<!doctype html>
<html lang="en">
<head><meta charset="utf-8"/><title>Live Chat</title></head>
<body>
  <h1>Live Chat</h1>
  <form method="get">
    <input name="slug" value="{{.Slug}}" placeholder="channel slug"/>
    <button type="submit">Join</button>
  </form>
  <div id="chatbox" style="height:380px;overflow:auto;border:1px solid #ccc;padding:8px;"></div>
  <form id="sendForm">
    <input id="msg" placeholder="Message"/>
    <button type="submit">Send</button>
  </form>
  <p><small>Sending requires the chat:write scope.</small></p>
  <script>
    const slug = {{.Slug}};
    const chatbox = document.getElementById('chatbox');
    function appendLine(html) {
      const div = document.createElement('div');
      div.innerHTML = html;
      chatbox.appendChild(div);
      chatbox.scrollTop = chatbox.scrollHeight;
    }
    if (slug) {
      const proto = location.protocol === 'https:' ? 'wss' : 'ws';
      const ws = new WebSocket(proto + '://' + location.host + '/live-chat/ws?slug=' + encodeURIComponent(slug));
      ws.onopen = () => appendLine('<em>Connected to live chat.</em>');
      ws.onclose = () => appendLine('<em>Disconnected.</em>');
      ws.onmessage = (ev) => {
        try {
          const m = JSON.parse(ev.data);
          appendLine('<strong></strong>');
          chatbox.lastChild.firstChild.textContent = m.username + ': ';
          chatbox.lastChild.append(m.content);
        } catch (e) { /* ignore */ }
      };
    }
    document.getElementById('sendForm').addEventListener('submit', async (e) => {
      e.preventDefault();
      const msg = document.getElementById('msg');
      const text = msg.value.trim();
      if (!text || !slug) return;
      const res = await fetch('/send-chat', {
        method: 'POST',
        headers: {'Content-Type': 'application/json'},
        body: JSON.stringify({slug: slug, content: text})
      });
      if (res.ok) {
        msg.value = '';
        appendLine('<em>Message sent.</em>');
      } else {
        const err = await res.json().catch(() => ({}));
        appendLine('<em>Send failed: ' + (err.error || res.status) + '</em>');
      }
    });
  </script>
</body>
</html>
`))

func renderIndex(w http.ResponseWriter, scopes string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = indexTemplate.Execute(w, struct{ Scopes string }{Scopes: scopes})
}

func renderLiveChat(w http.ResponseWriter, slug string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = liveChatTemplate.Execute(w, struct{ Slug string }{Slug: slug})
}
