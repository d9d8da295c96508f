package web

// indexPage is the whole remote UI: pattern buttons plus a live canvas bound
// to /ws. The canvas decodes frame_rle and delta messages and sends batched
// point edits while the finger moves.
const indexPage = `<!doctype html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Alis Panel</title>
<style>
body { font-family: sans-serif; text-align: center; margin-top: 1em; background: #111; color: #eee; }
button { width: 40%; padding: 0.8em; font-size: 1.1em; margin: 0.4em; }
canvas { image-rendering: pixelated; border: 1px solid #444; touch-action: none; }
input[type=color] { width: 4em; height: 3em; vertical-align: middle; }
</style>
</head>
<body>
<h2>Alis Panel</h2>
<div>
<button onclick="setPattern('rgb_cycle')">Test</button>
<button onclick="setPattern('off')">Stop</button>
<button onclick="setPattern('animation')">Animate</button>
<button onclick="setPattern('draw')">Draw</button>
</div>
<div>
<canvas id="panel" width="16" height="16" style="width: 320px; height: 320px"></canvas>
</div>
<div>
<input id="color" type="color" value="#ff0000">
<button onclick="clearPanel()">Clear</button>
</div>
<script>
const cv = document.getElementById('panel');
const cx = cv.getContext('2d');
let W = 16, H = 16;
const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
ws.onmessage = (ev) => {
  const f = JSON.parse(ev.data);
  if (f.w !== W || f.h !== H) { W = f.w; H = f.h; cv.width = W; cv.height = H; }
  if (f.type === 'frame_rle') {
    let y = 0;
    for (const row of f.rows) {
      let x = 0;
      for (const [n, [r, g, b]] of row) {
        cx.fillStyle = 'rgb(' + r + ',' + g + ',' + b + ')';
        cx.fillRect(x, y, n, 1);
        x += n;
      }
      y++;
    }
  } else if (f.type === 'delta') {
    f.indices.forEach((idx, k) => {
      const [r, g, b] = f.rgb[k];
      cx.fillStyle = 'rgb(' + r + ',' + g + ',' + b + ')';
      cx.fillRect(idx % W, Math.floor(idx / W), 1, 1);
    });
  }
};
let pts = [];
function queuePoint(ev) {
  const rect = cv.getBoundingClientRect();
  const x = Math.floor((ev.clientX - rect.left) / rect.width * W);
  const y = Math.floor((ev.clientY - rect.top) / rect.height * H);
  const c = document.getElementById('color').value;
  pts.push({x: x, y: y,
    r: parseInt(c.slice(1, 3), 16),
    g: parseInt(c.slice(3, 5), 16),
    b: parseInt(c.slice(5, 7), 16)});
}
setInterval(() => {
  if (pts.length && ws.readyState === WebSocket.OPEN) {
    ws.send(JSON.stringify({type: 'points', pts: pts}));
    pts = [];
  }
}, 50);
let down = false;
cv.addEventListener('pointerdown', (ev) => { down = true; queuePoint(ev); });
cv.addEventListener('pointermove', (ev) => { if (down) queuePoint(ev); });
window.addEventListener('pointerup', () => { down = false; });
function setPattern(p) {
  fetch('/api/pattern', {method: 'POST', body: JSON.stringify({pattern: p})});
}
function clearPanel() {
  if (ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify({type: 'clear'}));
}
</script>
</body>
</html>`
