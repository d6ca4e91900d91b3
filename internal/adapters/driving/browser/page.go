package browser

// indexPage is the single page shell. It fetches /snapshot whenever the
// event stream announces a newer revision, restores the anchor sent with
// it and reports the top visible block back as the reader scrolls.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>mdr</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 52rem; margin: 0 auto; padding: 2rem 1rem 50vh; line-height: 1.55; color: #1e1e2e; }
pre { background: #f4f4f8; padding: .75rem; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccd; padding: .25rem .5rem; }
blockquote { border-left: 3px solid #ccd; margin-left: 0; padding-left: 1rem; color: #555; }
.muted { color: #888; }
.marker { color: #b45309; font-size: .85rem; }
.diagram.failed figcaption { color: #b91c1c; }
.diagram.pending figcaption { color: #888; }
#overlay { display: none; position: sticky; top: 0; background: #b91c1c; color: #fff; padding: .5rem 1rem; }
</style>
</head>
<body>
<div id="overlay"></div>
<article id="doc"><p class="muted">Loading…</p></article>
<script>
(function () {
  var shown = 0, pending = false, again = false, timer = null;
  var doc = document.getElementById("doc");
  var overlay = document.getElementById("overlay");

  function blockAtTop() {
    var blocks = doc.querySelectorAll("[data-block]");
    for (var i = 0; i < blocks.length; i++) {
      var r = blocks[i].getBoundingClientRect();
      if (r.bottom > 0) {
        var off = r.height > 0 ? Math.min(Math.max(-r.top / r.height, 0), 1) : 0;
        return { block_id: blocks[i].dataset.block, offset: off };
      }
    }
    return null;
  }

  function report() {
    var a = blockAtTop();
    if (!a) return;
    fetch("/anchor", { method: "POST", headers: { "Content-Type": "application/json" }, body: JSON.stringify(a) });
  }

  function restore(a) {
    if (!a) return;
    var el = doc.querySelector('[data-block="' + CSS.escape(a.block_id) + '"]');
    if (!el) return;
    var top = el.getBoundingClientRect().top + window.scrollY;
    window.scrollTo(0, top + a.offset * el.offsetHeight);
  }

  function load() {
    if (pending) { again = true; return; }
    pending = true;
    fetch("/snapshot", { cache: "no-store" }).then(function (res) {
      if (!res.ok) return null;
      return res.json();
    }).then(function (s) {
      if (!s || s.revision < shown) return;
      var keep = s.anchor || blockAtTop();
      shown = s.revision;
      document.title = s.title ? s.title + " - mdr" : "mdr";
      overlay.style.display = s.error ? "block" : "none";
      overlay.textContent = s.error ? "⚠ " + s.error + " (showing last good version)" : "";
      doc.innerHTML = s.html;
      restore(keep);
    }).finally(function () {
      pending = false;
      if (again) { again = false; load(); }
    });
  }

  var events = new EventSource("/events");
  events.addEventListener("snapshot", function (e) {
    if (Number(e.data) > shown) load();
  });

  window.addEventListener("scroll", function () {
    clearTimeout(timer);
    timer = setTimeout(report, 150);
  });
})();
</script>
</body>
</html>
`
